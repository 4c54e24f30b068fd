package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"nanpa/internal/classify"
	"nanpa/internal/config"
	"nanpa/internal/logging"
	"nanpa/internal/nanpa"
	"nanpa/internal/pipeline"
	"nanpa/internal/rules"
	"nanpa/internal/scheduler"
	"nanpa/internal/storage"
)

type app struct {
	cfg config.Config
	log *zap.Logger
}

func main() {
	cfg, err := config.Load()
	must(err)
	log, err := logging.New(cfg.LogLevel, cfg.LogDevelopment)
	must(err)
	defer func() { _ = log.Sync() }()

	a := &app{cfg: cfg, log: log}
	root := &cobra.Command{
		Use:           "nanpa",
		Short:         "Build the NPA-NXX carrier lookup from NANPA CO code assignments",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(a.updateCmd(), a.checkCmd(), a.watchCmd(), a.lookupCmd(), a.exportCmd())

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	must(root.ExecuteContext(ctx))
}

func (a *app) updateCmd() *cobra.Command {
	var noFetch bool
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Fetch, extract, parse and save data.json + carriers.db",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withUpdater(func(_ *storage.DB, svc *pipeline.UpdateService) error {
				res, err := svc.Run(cmd.Context(), pipeline.UpdateOptions{NoFetch: noFetch})
				if err != nil {
					return err
				}
				a.log.Info("update completed successfully",
					zap.Int("files", res.Stats.FilesScanned),
					zap.Int("rows_read", res.Stats.RowsRead),
					zap.Int("rows_accepted", res.Stats.RowsAccepted),
				)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&noFetch, "no-fetch", false, "skip downloading; reprocess existing local zips")
	return cmd
}

func (a *app) checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "List .zip links on the index page with Last-Modified and size",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client := nanpa.NewClient(a.cfg, a.log)
			links, err := client.ZipLinks(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Println("Available ZIPs:")
			for _, link := range links {
				remote, err := client.Probe(cmd.Context(), link)
				if err != nil {
					fmt.Printf("- %s  | (HEAD failed: %v)\n", link, err)
					continue
				}
				lastModified, size := remote.LastModified, "Unknown"
				if lastModified == "" {
					lastModified = "Unknown"
				}
				if remote.Size > 0 {
					size = fmt.Sprint(remote.Size)
				}
				fmt.Printf("- %s  | Last-Modified: %s | Size: %s\n", link, lastModified, size)
			}
			return nil
		},
	}
}

func (a *app) watchCmd() *cobra.Command {
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run the update now and then on a fixed interval",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withUpdater(func(_ *storage.DB, svc *pipeline.UpdateService) error {
				return scheduler.NewService(svc, interval, a.log).Run(cmd.Context())
			})
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", time.Duration(a.cfg.WatchIntervalMin)*time.Minute, "time between updates")
	return cmd
}

func (a *app) lookupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <npa-nxx|phone number>",
		Short: "Show the stored record for a prefix",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			prefix, ok := pipeline.PrefixFromInput(args[0])
			if !ok {
				return fmt.Errorf("not a prefix or phone number: %q", args[0])
			}
			db, err := storage.Open(a.cfg.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()

			rec, err := db.GetPrefix(prefix)
			if err != nil {
				return err
			}
			if rec == nil {
				return fmt.Errorf("prefix %s not found", prefix)
			}
			fmt.Printf("prefix=%s carrier=%s type=%s company=%q ocn=%s city=%s state=%s source=%s\n",
				rec.Prefix, rec.Carrier, orUnknown(string(rec.Type)), rec.CompanyOriginal, rec.OCN, rec.City, rec.State, rec.LastSource)
			return nil
		},
	}
}

func (a *app) exportCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the prefixes table to an xlsx file",
		RunE: func(_ *cobra.Command, _ []string) error {
			db, err := storage.Open(a.cfg.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()

			records, err := db.ListPrefixes()
			if err != nil {
				return err
			}
			if len(records) == 0 {
				return fmt.Errorf("no prefixes in %s; run update first", a.cfg.DBPath)
			}
			if err := pipeline.ExportRecordsToXLSX(records, out); err != nil {
				return err
			}
			fmt.Printf("exported %d prefixes to %s\n", len(records), out)
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "prefixes.xlsx", "output xlsx path")
	return cmd
}

func (a *app) withUpdater(fn func(*storage.DB, *pipeline.UpdateService) error) error {
	rs, err := rules.Resolve(a.cfg.RulesPath, a.cfg.RulesProfile)
	if err != nil {
		return err
	}
	db, err := storage.Open(a.cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	svc := pipeline.NewUpdateService(db, a.cfg, classify.New(rs), nanpa.NewClient(a.cfg, a.log), a.log)
	return fn(db, svc)
}

func orUnknown(v string) string {
	if v == "" {
		return "Unknown"
	}
	return v
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
