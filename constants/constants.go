package constants

import "os"

// Version is the current panel version.
const Version = "0.0.0-canary"

// DefaultFilePerms are the file perms used for created files.
const DefaultFilePerms os.FileMode = 0644

// DefaultFolderPerms are the file perms used for created folders.
const DefaultFolderPerms os.FileMode = 0744

// NestsPath is the path of the nest files within the configured DataPath.
const NestsPath string = "nests"

// EggsPath is the path of the eggs within the configured DataPath.
const EggsPath string = "eggs"

// EggConfigFile is the filename of an egg definition, including its variables.
const EggConfigFile string = "egg.yaml"

// ServersPath is the path of the servers within the configured DataPath.
const ServersPath string = "servers"

// ServerConfigFile is the filename of the server config file.
const ServerConfigFile string = "server.yaml"

// TimestampFormat is the layout used for every created_at and updated_at value
// returned by the API. Times are always rendered in UTC.
const TimestampFormat = "2006-01-02T15:04:05-07:00"

// MaxVariableFieldLength is the longest name or environment variable key an
// egg variable may have.
const MaxVariableFieldLength = 191
