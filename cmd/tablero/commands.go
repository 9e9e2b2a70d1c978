package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"tablero/internal"
	"tablero/internal/classify"
	"tablero/internal/connectors"
	"tablero/internal/listener"
	"tablero/internal/pipeline"
	"tablero/internal/report"
	"tablero/internal/util"
	"tablero/internal/web"
)

func serveCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the dashboard web server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				a.cfg.HTTPAddr = addr
			}
			db, err := a.openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			srv, err := web.NewServer(a.cfg, db, a.log)
			if err != nil {
				return err
			}
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			return srv.ListenAndServe(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default HTTP_ADDR)")
	return cmd
}

func classifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify NAME...",
		Short: "Print normalized name, codes and category of each argument",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "nombre\tcodigo_proyecto\tcodigo_estabilizacion\ttipo")
			for _, arg := range args {
				c := classify.Name(internal.Text(arg))
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", c.Name.Raw, util.Deref(c.ProjectCode), util.Deref(c.StabilizationCode), c.Category)
			}
			return tw.Flush()
		},
	}
}

func reportCmd(a *app) *cobra.Command {
	var (
		input     string
		out       string
		jefaturas []string
		indicator string
		proyectos []string
	)
	cmd := &cobra.Command{
		Use:       "report proyectos|agosto|migracion",
		Short:     "Load an export, print its summary and optionally write the report as xlsx",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"proyectos", "agosto", "migracion"},
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, ok := internal.ParseDashboard(strings.ToLower(args[0]))
			if !ok && strings.EqualFold(args[0], "projects") {
				kind, ok = internal.DashboardProjects, true
			}
			if !ok {
				return fmt.Errorf("unknown dashboard %q", args[0])
			}

			ds, err := pipeline.LoadFile(input, kind, a.cfg.Dashboards)
			if err != nil {
				return err
			}
			a.log.Debug("workbook loaded", zap.String("source", ds.Source), zap.Int("rows", ds.Len()))

			var sheets []pipeline.Sheet
			w := cmd.OutOrStdout()
			switch kind {
			case internal.DashboardProjects:
				f := report.ProjectFilter{Indicator: indicator}
				if cmd.Flags().Changed("jefatura") {
					f.Jefaturas = jefaturas
				}
				rep := report.BuildProjects(ds.Projects.Rows, f, a.cfg.Dashboards)
				printProjects(w, rep)
				sheets = rep.Sheets()
			case internal.DashboardAugust:
				rep := report.BuildAugust(ds.Projects.Rows, a.cfg.Dashboards)
				printAugust(w, rep)
				sheets = rep.Sheets()
			case internal.DashboardMigration:
				rep := report.BuildMigration(ds.Migration, report.MigrationFilter{Proyectos: proyectos})
				printMigration(w, rep)
				sheets = rep.Sheets()
			}

			if out == "" {
				return nil
			}
			if err := pipeline.SaveWorkbook(out, sheets); err != nil {
				return err
			}
			fmt.Fprintf(w, "report written to %s (%d sheets)\n", out, len(sheets))
			return nil
		},
	}
	cmd.Flags().StringVar(&input, "input", "", "xlsx export to load")
	cmd.Flags().StringVar(&out, "out", "", "write the report to this xlsx path")
	cmd.Flags().StringSliceVar(&jefaturas, "jefatura", nil, "jefaturas to keep (projects)")
	cmd.Flags().StringVar(&indicator, "indicator", "", "indicator detail to include (projects)")
	cmd.Flags().StringSliceVar(&proyectos, "proyecto", nil, "projects to keep (migracion)")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func printProjects(w io.Writer, rep report.ProjectsReport) {
	fmt.Fprintf(w, "jefaturas: %s\n", strings.Join(rep.SelectedJefaturas, ", "))
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, ind := range rep.Indicators {
		fmt.Fprintf(tw, "%s\t%d\n", ind.Label, ind.Count)
	}
	_ = tw.Flush()
	for _, t := range rep.Types {
		fmt.Fprintf(w, "%s: %d (%.1f%%)\n", t.Key, t.Count, t.Percent)
	}
}

func printAugust(w io.Writer, rep report.AugustReport) {
	s := rep.Summary
	fmt.Fprintf(w, "total %d · presentación %s %d · posterior %s %d · implementados %d\n",
		s.Total, rep.PresTag, s.Pres, rep.PostTag, s.Post, s.Implementados)
	fmt.Fprintf(w, "antes del freeze %d · después del freeze %d · implementados core %d\n",
		len(rep.BeforeFreeze), len(rep.AfterFreeze), len(rep.Implemented))
}

func printMigration(w io.Writer, rep report.MigrationReport) {
	k := rep.KPIs
	fmt.Fprintf(w, "objetos %d · compilados %d · pendientes %d · xpz enviados %d · xpz pendientes %d\n",
		k.Total, k.Compilados, k.PendientesCompilar, k.XPZEnviados, k.XPZPendEnvio)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, r := range rep.Responsables {
		fmt.Fprintf(tw, "%s\t%d\t%d\n", r.Responsable, r.Asignaciones, r.Compilados)
	}
	_ = tw.Flush()
}

func mailFetchCmd(a *app) *cobra.Command {
	var (
		provider string
		label    string
		limit    int
	)
	cmd := &cobra.Command{
		Use:   "mail:fetch",
		Short: "Save spreadsheet attachments from a mailbox into the inbox directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			if provider == "" {
				provider = a.cfg.MailListenerProvider
			}
			conn, err := connectors.New(provider, a.cfg)
			if err != nil {
				return err
			}
			db, err := a.openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			fetch := connectors.NewFetchService(db, a.cfg.InboxDir, conn, a.log)
			result, err := fetch.FetchAndStore(cmd.Context(), label, limit)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "mail fetch done provider=%s fetched=%d saved=%d\n", provider, result.Fetched, len(result.Saved))
			return nil
		},
	}
	cmd.Flags().StringVar(&provider, "provider", "", "gmail|imap (default MAIL_LISTENER_PROVIDER)")
	cmd.Flags().StringVar(&label, "label", "INBOX", "mailbox/label")
	cmd.Flags().IntVar(&limit, "max", 50, "max messages")
	return cmd
}

func mailListenCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "mail:listen",
		Short: "Poll the mailbox until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			return listener.NewService(db, a.cfg, a.log).Run(ctx)
		},
	}
}
