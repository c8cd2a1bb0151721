package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"qrprint/internal/config"
	"qrprint/internal/printing"
	"qrprint/internal/textutil"
)

func newPrintersCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "printers",
		Short: "List installed printers and the classes routed to them",
		RunE: func(cmd *cobra.Command, args []string) error {
			printers, err := ctx.loadPrinters()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			names, err := printing.New(printing.WithLogger(logger)).ListPrinters(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(names) == 0 {
				fmt.Fprintln(out, "No printers found")
				return nil
			}

			routed := make(map[string][]string)
			for _, id := range printers.ClassIDs() {
				class, _ := printers.Class(id)
				if !class.UsesDefaultPrinter() {
					routed[class.PrinterName] = append(routed[class.PrinterName], id)
				}
			}
			rows := make([][]string, 0, len(names))
			for _, name := range names {
				rows = append(rows, []string{name, strings.Join(routed[name], ", ")})
			}
			fmt.Fprint(out, renderTable([]string{"Printer", "Classes"}, rows, nil))
			return nil
		},
	}
}

func newClassesCommand(ctx *commandContext) *cobra.Command {
	classesCmd := &cobra.Command{
		Use:   "classes",
		Short: "Manage document classes and their printers",
	}
	classesCmd.AddCommand(newClassesListCommand(ctx))
	classesCmd.AddCommand(newClassesAddCommand(ctx))
	classesCmd.AddCommand(newClassesRemoveCommand(ctx))
	classesCmd.AddCommand(newClassesSetCommand(ctx))
	return classesCmd
}

func newClassesListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List document classes",
		RunE: func(cmd *cobra.Command, args []string) error {
			printers, err := ctx.loadPrinters()
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(printers.PrinterTypes))
			for _, id := range printers.ClassIDs() {
				class, _ := printers.Class(id)
				options := strings.Join(class.Options, " ")
				rows = append(rows, []string{id, class.DisplayName, class.Prefix, class.PrinterName, class.Media, options})
			}
			out := cmd.OutOrStdout()
			fmt.Fprint(out, renderTable([]string{"ID", "Name", "Prefix", "Printer", "Media", "Options"}, rows, nil))
			fmt.Fprintf(out, "Payload format: <prefix>%s<url>\n", printers.Separator())
			return nil
		},
	}
}

func newClassesAddCommand(ctx *commandContext) *cobra.Command {
	var class config.PrinterClass
	cmd := &cobra.Command{
		Use:   "add <id>",
		Short: "Add a document class",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			printers, err := ctx.loadPrinters()
			if err != nil {
				return err
			}
			id := textutil.SanitizeToken(args[0])
			if strings.TrimSpace(class.Prefix) == "" {
				class.Prefix = id
			}
			if strings.TrimSpace(class.DisplayName) == "" {
				class.DisplayName = id
			}
			if err := printers.AddClass(id, class); err != nil {
				return err
			}
			added, _ := printers.Class(id)
			fmt.Fprintf(cmd.OutOrStdout(), "Added class %s (prefix %q, printer %s)\n", id, added.Prefix, added.PrinterName)
			return nil
		},
	}
	cmd.Flags().StringVar(&class.DisplayName, "name", "", "Display name (default: id)")
	cmd.Flags().StringVar(&class.Prefix, "prefix", "", "Scan prefix (default: id)")
	cmd.Flags().StringVar(&class.PrinterName, "printer", config.DefaultPrinterName, "Printer name or 'default'")
	cmd.Flags().StringVar(&class.Media, "media", config.DefaultMedia, "Media size passed to the spooler")
	cmd.Flags().StringSliceVar(&class.Options, "option", nil, "Extra spooler option (repeatable)")
	return cmd
}

func newClassesRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a document class",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			printers, err := ctx.loadPrinters()
			if err != nil {
				return err
			}
			if err := printers.RemoveClass(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed class %s\n", args[0])
			return nil
		},
	}
}

func newClassesSetCommand(ctx *commandContext) *cobra.Command {
	var prefix, printer, media string
	var options []string
	cmd := &cobra.Command{
		Use:   "set <id>",
		Short: "Change the prefix, printer, media, or options of a class",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			printers, err := ctx.loadPrinters()
			if err != nil {
				return err
			}
			var opts []string
			if cmd.Flags().Changed("option") {
				opts = append([]string{}, options...)
			}
			update := config.ClassUpdate{Prefix: prefix, Printer: printer, Media: media, Options: opts}
			if err := printers.ConfigureClass(args[0], update); err != nil {
				return err
			}
			class, _ := printers.Class(args[0])
			fmt.Fprintf(cmd.OutOrStdout(), "Class %s: prefix %s, printer %s, media %s\n", args[0], class.Prefix, class.PrinterName, class.Media)
			return nil
		},
	}
	cmd.Flags().StringVar(&prefix, "prefix", "", "Payload prefix that selects this class")
	cmd.Flags().StringVar(&printer, "printer", "", "Printer name or 'default'")
	cmd.Flags().StringVar(&media, "media", "", "Media size passed to the spooler")
	cmd.Flags().StringSliceVar(&options, "option", nil, "Spooler options; pass --option= to clear")
	return cmd
}
