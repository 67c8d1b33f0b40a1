package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/BenB289/BMGPanel/acl"
	"github.com/BenB289/BMGPanel/api"
	"github.com/BenB289/BMGPanel/client"
	"github.com/BenB289/BMGPanel/config"
	"github.com/BenB289/BMGPanel/flash"
	"github.com/BenB289/BMGPanel/form"
	"github.com/BenB289/BMGPanel/models"
	"github.com/BenB289/BMGPanel/store"
	"github.com/BenB289/BMGPanel/transformer"
	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"
)

var (
	includeFlag string
	fileFlag    string
	yesFlag     bool
)

var rootCmd = &cobra.Command{
	Use:           "panel",
	Short:         "Manage eggs and their variables",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the application API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()

		printTitle()
		if err := checkStorage(cfg.Data); err != nil {
			return err
		}
		if err := checkPort(cfg.API.Host, cfg.API.Port); err != nil {
			return err
		}

		s, err := store.Open(cfg.Data)
		if err != nil {
			return err
		}

		return api.New(cfg, s).Listen(net.JoinHostPort(cfg.API.Host, strconv.Itoa(cfg.API.Port)))
	},
}

var eggsCmd = &cobra.Command{
	Use:   "eggs",
	Short: "Inspect eggs stored on this machine",
}

var eggsShowCmd = &cobra.Command{
	Use:   "show <egg>",
	Short: "Print the API representation of an egg",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		s, err := store.Open(loadConfig().Data)
		if err != nil {
			return err
		}
		egg, err := s.Egg(id)
		if err != nil {
			return err
		}

		item, err := transformer.NewEggTransformer(acl.AllowAll, s, transformer.ParseIncludes(includeFlag)...).Transform(egg)
		if err != nil {
			return err
		}

		b, err := json.MarshalIndent(item, "", "  ")
		if err != nil {
			return errors.WithStack(err)
		}
		fmt.Println(string(b))
		return nil
	},
}

var variablesCmd = &cobra.Command{
	Use:   "variables",
	Short: "Edit the variables of an egg through the panel API",
}

var variablesListCmd = &cobra.Command{
	Use:   "list <egg>",
	Short: "List the variables of an egg",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, flashes, err := loadForm(cmd.Context(), args[0])
		if err != nil {
			printFlashes(flashes)
			return err
		}

		egg := f.Egg()
		color.New(color.Bold).Printf("%s (egg %d)\n", egg.Name, egg.ID)

		vars := f.Variables()
		if len(vars) == 0 {
			flashes.Add(flash.Message{Key: form.FlashKey, Type: flash.Info, Message: "No variables are defined for this egg."})
			printFlashes(flashes)
			return nil
		}
		for _, v := range vars {
			color.New(color.Bold).Printf("%-4d %s\n", v.ID, v.Name)
			fmt.Printf("     %s=%s  (%s)\n", v.EnvVariable, v.DefaultValue, v.Rules)
			fmt.Printf("     viewable: %t  editable: %t\n", v.UserViewable, v.UserEditable)
		}
		return nil
	},
}

var variablesApplyCmd = &cobra.Command{
	Use:   "apply <egg>",
	Short: "Save the variables listed in a YAML file",
	Long: `Apply reads a YAML list of variables. Entries with an id update the stored
variable with that id, entries without one are created. All variables are
saved in a single request.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := os.ReadFile(fileFlag)
		if err != nil {
			return errors.Wrap(err, "reading variables file")
		}
		var wanted []models.EggVariable
		if err := yaml.Unmarshal(b, &wanted); err != nil {
			return errors.Wrap(err, "decoding variables file")
		}

		f, flashes, err := loadForm(cmd.Context(), args[0])
		if err != nil {
			printFlashes(flashes)
			return err
		}

		if err := applyVariables(f, wanted); err != nil {
			return err
		}

		if errs := f.Validate(); len(errs) > 0 {
			for _, e := range errs {
				color.Red("✗ variable %d: %s failed %s", e.Index, e.Field, e.Rule)
			}
			return form.ErrSubmitBlocked
		}

		if err := f.Submit(cmd.Context()); err != nil {
			printFlashes(flashes)
			return err
		}

		flashes.Add(flash.Message{Key: form.FlashKey, Type: flash.Success, Message: fmt.Sprintf("Saved %d variables.", len(f.Cached()))})
		printFlashes(flashes)
		return nil
	},
}

var variablesDeleteCmd = &cobra.Command{
	Use:   "delete <egg> <variable>",
	Short: "Delete a single variable",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[1])
		if err != nil {
			return err
		}

		f, flashes, err := loadForm(cmd.Context(), args[0])
		if err != nil {
			printFlashes(flashes)
			return err
		}

		if err := f.RequestDelete(id); err != nil {
			return err
		}
		if !yesFlag && !confirm("Deleting this variable will delete it from every server using this egg. Continue?") {
			f.CancelDelete(id)
			flashes.Add(flash.Message{Key: form.FlashKey, Type: flash.Warning, Message: "Aborted."})
			printFlashes(flashes)
			return nil
		}

		if err := f.ConfirmDelete(cmd.Context(), id); err != nil {
			printFlashes(flashes)
			return err
		}

		flashes.Add(flash.Message{Key: form.FlashKey, Type: flash.Success, Message: fmt.Sprintf("Deleted variable %d.", id)})
		printFlashes(flashes)
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: config.yml)")

	variablesCmd.PersistentFlags().String("url", "", "panel URL")
	variablesCmd.PersistentFlags().String("token", "", "application API key")
	_ = viper.BindPFlag(config.ClientURL, variablesCmd.PersistentFlags().Lookup("url"))
	_ = viper.BindPFlag(config.ClientToken, variablesCmd.PersistentFlags().Lookup("token"))

	eggsShowCmd.Flags().StringVarP(&includeFlag, "include", "i", "", "relationships to include, comma separated")
	variablesApplyCmd.Flags().StringVarP(&fileFlag, "file", "f", "variables.yml", "YAML file with the variables")
	variablesDeleteCmd.Flags().BoolVarP(&yesFlag, "yes", "y", false, "do not ask for confirmation")

	eggsCmd.AddCommand(eggsShowCmd)
	variablesCmd.AddCommand(variablesListCmd, variablesApplyCmd, variablesDeleteCmd)
	rootCmd.AddCommand(serveCmd, eggsCmd, variablesCmd)
}

func parseID(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil || id <= 0 {
		return 0, errors.Errorf("%q is not a valid id", arg)
	}
	return id, nil
}

func loadForm(ctx context.Context, arg string) (*form.VariablesForm, *flash.Store, error) {
	id, err := parseID(arg)
	if err != nil {
		return nil, nil, err
	}

	cfg := loadConfig()
	flashes := &flash.Store{}
	f := form.New(client.New(cfg.Client.URL, cfg.Client.Token), flashes, id)
	if err := f.Load(ctx); err != nil {
		return nil, flashes, err
	}
	return f, flashes, nil
}

// applyVariables copies wanted onto the form. Entries with an id replace the
// loaded variable with that id, the rest are added.
func applyVariables(f *form.VariablesForm, wanted []models.EggVariable) error {
	positions := make(map[int]int)
	for i, v := range f.Variables() {
		positions[v.ID] = i
	}

	for _, w := range wanted {
		w := w
		i, ok := positions[w.ID]
		if w.ID != 0 && !ok {
			return errors.Errorf("variable %d does not belong to this egg", w.ID)
		}
		if w.ID == 0 {
			added, err := f.Add()
			if err != nil {
				return err
			}
			i = added
		}
		if err := f.Edit(i, func(v *models.EggVariable) { *v = w }); err != nil {
			return err
		}
	}
	return nil
}

func printFlashes(flashes *flash.Store) {
	if flashes == nil {
		return
	}
	for _, m := range flashes.Messages(form.FlashKey) {
		switch m.Type {
		case flash.Error:
			color.Red("✗ %s", m.Message)
		case flash.Warning:
			color.Yellow("! %s", m.Message)
		case flash.Success:
			color.Green("✓ %s", m.Message)
		default:
			fmt.Println(m.Message)
		}
	}
	flashes.Clear(form.FlashKey)
}

func confirm(question string) bool {
	fmt.Printf("%s [y/N] ", question)
	answer, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}
