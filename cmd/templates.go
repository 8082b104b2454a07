package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/bz888/scribe/internal/api/server"
	"github.com/bz888/scribe/internal/chat"
	"github.com/bz888/scribe/internal/config"
	"github.com/bz888/scribe/internal/logger"
	"github.com/bz888/scribe/internal/prompt"
	"github.com/bz888/scribe/internal/session"
	"github.com/bz888/scribe/internal/templates"
	"github.com/spf13/cobra"
)

var templatesCmd = &cobra.Command{
	Use:     "templates",
	Aliases: []string{"template", "tpl"},
	Short:   "Browse and fill writing templates",
}

var templatesListCmd = &cobra.Command{
	Use:     "list [category]",
	Aliases: []string{"ls"},
	Short:   "List template categories and templates",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		catalog, err := templates.Load()
		if err != nil {
			return err
		}

		categories := catalog.Categories()
		if len(args) == 1 {
			if len(catalog.Names(args[0])) == 0 {
				return fmt.Errorf("unknown category %q", args[0])
			}
			categories = []string{args[0]}
		}

		for _, category := range categories {
			boldColor.Println(category)
			for _, name := range catalog.Names(category) {
				t := catalog.Get(category, name)
				fmt.Printf("  • %s", name)
				if t.Description != "" {
					faintColor.Printf("  %s", t.Description)
				}
				fmt.Println()
			}
			fmt.Println()
		}
		return nil
	},
}

var generateFilled bool

var templatesFillCmd = &cobra.Command{
	Use:   "fill [category] [template]",
	Short: "Fill in a template interactively",
	Long: `Prompt for each placeholder of a template and print the filled text.
With --generate the filled text is sent to the configured text provider.`,
	Example: `  $ scribe templates fill
  $ scribe templates fill "Social Media" "Tweet Thread" --generate`,
	Args:         cobra.MaximumNArgs(2),
	SilenceUsage: true,
	RunE:         runFill,
}

func init() {
	templatesFillCmd.Flags().BoolVarP(&generateFilled, "generate", "g", false, "send the filled template to the text provider")

	templatesCmd.AddCommand(templatesListCmd)
	templatesCmd.AddCommand(templatesFillCmd)
}

func runFill(cmd *cobra.Command, args []string) error {
	catalog, err := templates.Load()
	if err != nil {
		return err
	}

	category, err := pickCategory(catalog, args)
	if err != nil {
		return err
	}
	tmpl, err := pickTemplate(catalog, category, args)
	if err != nil {
		return err
	}

	values, err := askPlaceholders(tmpl)
	if err != nil {
		return err
	}

	filled, err := templates.Fill(tmpl.Text, values)
	if err != nil {
		return err
	}
	fmt.Println(styles.Filled.Render(filled))

	if !generateFilled {
		return nil
	}
	return generate(cmd, catalog, tmpl, values)
}

func pickCategory(catalog *templates.Catalog, args []string) (string, error) {
	if len(args) > 0 {
		if len(catalog.Names(args[0])) == 0 {
			return "", fmt.Errorf("unknown category %q", args[0])
		}
		return args[0], nil
	}

	var category string
	categoryPrompt := &survey.Select{
		Message: "Select a category:",
		Options: catalog.Categories(),
	}
	if err := survey.AskOne(categoryPrompt, &category); err != nil {
		return "", cancelled(err, "selection cancelled")
	}
	return category, nil
}

func pickTemplate(catalog *templates.Catalog, category string, args []string) (templates.Template, error) {
	if len(args) > 1 {
		tmpl, ok := catalog.Lookup(category, args[1])
		if !ok {
			return templates.Template{}, fmt.Errorf("unknown template %q in %q", args[1], category)
		}
		return tmpl, nil
	}

	var name string
	templatePrompt := &survey.Select{
		Message: "Select a template:",
		Options: catalog.Names(category),
		Description: func(value string, _ int) string {
			return catalog.Get(category, value).Description
		},
	}
	if err := survey.AskOne(templatePrompt, &name); err != nil {
		return templates.Template{}, cancelled(err, "selection cancelled")
	}
	return catalog.Get(category, name), nil
}

func askPlaceholders(tmpl templates.Template) (map[string]string, error) {
	values := make(map[string]string, len(tmpl.Placeholders))
	for _, p := range tmpl.Placeholders {
		label := strings.ReplaceAll(p, "_", " ") + ":"

		var value string
		var q survey.Prompt = &survey.Input{Message: label}
		if templates.Multiline(p) {
			q = &survey.Multiline{Message: label}
		}
		if err := survey.AskOne(q, &value, survey.WithValidator(survey.Required)); err != nil {
			return nil, cancelled(err, "input cancelled")
		}
		values[p] = value
	}
	return values, nil
}

// generate runs the filled template through a one-off session.
func generate(cmd *cobra.Command, catalog *templates.Catalog, tmpl templates.Template, values map[string]string) error {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return err
	}
	if err := logger.InitLogger(cfg.Dev, cfg.LogPath, nil); err != nil {
		return err
	}
	defer logger.Close()

	gw := server.NewGateway(cmd.Context(), cfg)
	if !gw.TextAvailable() {
		printWarning("Text generation is not configured for provider %q", cfg.Text.Provider)
	}

	controller := session.NewController(gw, catalog)
	store := chat.NewStore()

	printInfo("Generating with %s...", cfg.Text.Provider)
	reply, err := controller.GenerateFromTemplate(cmd.Context(), store, session.TemplateInput{
		Category: tmpl.Category,
		Name:     tmpl.Name,
		Values:   values,
		Options:  prompt.Options{},
	})
	if err != nil {
		return err
	}

	text := reply.Text()
	if strings.HasPrefix(text, "⚠️") {
		fmt.Fprintln(os.Stderr, text)
		return errors.New("generation failed")
	}
	printSuccess("Generated")
	fmt.Println(text)
	return nil
}

func cancelled(err error, msg string) error {
	if errors.Is(err, terminal.InterruptErr) {
		return errors.New(msg)
	}
	return fmt.Errorf("%s: %w", msg, err)
}
