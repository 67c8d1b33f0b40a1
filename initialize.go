package main

import (
	"net"
	"os"
	"path/filepath"
	"strconv"

	"github.com/BenB289/BMGPanel/constants"
	"github.com/pkg/errors"
)

func printTitle() {
	log.Info("+ ------------------------------------ +")
	log.Info("|  Running Panel " + constants.Version + "          |")
	log.Info("+ ------------------------------------ +")
	log.Info("Loading eggs, this could take a few seconds.")
}

// checkStorage makes sure the data directories exist.
func checkStorage(root string) error {
	for _, dir := range []string{constants.NestsPath, constants.EggsPath, constants.ServersPath} {
		p := filepath.Join(root, dir)
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			log.WithField("path", p).Debug("Data directory in place.")
			continue
		}

		log.WithField("path", p).Warn("Missing data directory, generating now.")
		if err := os.MkdirAll(p, constants.DefaultFolderPerms); err != nil {
			return errors.Wrapf(err, "creating %s", p)
		}
	}
	return nil
}

// Check if a port is available
func checkPort(host string, port int) error {
	// Try to create a server with the port
	server, err := net.Listen("tcp", net.JoinHostPort(host, strconv.Itoa(port)))

	// if it fails then the port is likely taken
	if err != nil {
		return errors.Wrapf(err, "port %d is not available", port)
	}

	// we successfully used and closed the port
	// so it's now available to be used again
	return server.Close()
}
