package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/okian/econgpt/internal/domain/persona"
	"github.com/okian/econgpt/internal/domain/types"
	"github.com/okian/econgpt/internal/seed"
	"github.com/okian/econgpt/pkg/logger"
)

func newTableCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "table",
		Short: "Load the economic table from the warehouse and print it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg := configFrom(ctx)

			list, _ := cmd.Flags().GetString("indicators")
			indicators, err := types.ParseIndicators(list)
			if err != nil {
				return err
			}

			store, err := openWarehouse(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			table, err := newLoader(cfg, store).Load(ctx)
			if err != nil {
				return err
			}

			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(table.Project(indicators))
			}
			return printTable(cmd.OutOrStdout(), table, indicators)
		},
	}
	cmd.Flags().String("indicators", "", "comma separated indicators (default all)")
	cmd.Flags().Bool("json", false, "print JSON instead of columns")
	return cmd
}

func printTable(w io.Writer, table types.Table, indicators []types.Indicator) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	header := []string{"DATE"}
	for _, ind := range indicators {
		header = append(header, string(ind))
	}
	if _, err := fmt.Fprintln(tw, strings.Join(header, "\t")+"\t"); err != nil {
		return err
	}
	for _, row := range table {
		cells := []string{row.Date.Format(types.DateLayout)}
		for _, ind := range indicators {
			v := row.Get(ind)
			if !v.Valid {
				cells = append(cells, "-")
				continue
			}
			cells = append(cells, fmt.Sprintf("%.2f", v.Float))
		}
		if _, err := fmt.Fprintln(tw, strings.Join(cells, "\t")+"\t"); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func newAskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask QUESTION",
		Short: "Ask one persona a question and print the answer",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := configFrom(ctx)

			who, _ := cmd.Flags().GetString("persona")
			responder, err := newResponder(ctx, cfg)
			if err != nil {
				return err
			}

			sess := persona.NewSession(uuid.NewString())
			res, err := responder.Ask(ctx, sess, 0, strings.Join(args, " "), who)
			if err != nil {
				if res.Error != "" {
					return errors.New(res.Error)
				}
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s:\n%s\n", res.Persona, res.Answer)
			return err
		},
	}
	cmd.Flags().StringP("persona", "p", persona.Personas()[0], "persona label")
	return cmd
}

func newSeedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the warehouse tables and fill them with synthetic quarterly data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg := configFrom(ctx)

			quarters, _ := cmd.Flags().GetInt("quarters")
			from, _ := cmd.Flags().GetString("start")
			rngSeed, _ := cmd.Flags().GetUint64("seed")
			start, err := time.Parse(types.DateLayout, from)
			if err != nil {
				return fmt.Errorf("invalid --start: %w", err)
			}

			store, err := openWarehouse(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			stats, err := seed.Run(ctx, store,
				seed.WithTables(cfg.WarehousePriceTable, cfg.WarehouseLaborTable),
				seed.WithStart(start),
				seed.WithQuarters(quarters),
				seed.WithSeed(rngSeed),
				seed.WithLogger(logger.Named("seed")),
			)
			if err != nil {
				return err
			}
			logger.Get().Info(ctx, "seed complete",
				logger.Int("priceRows", stats.PriceRows),
				logger.Int("laborRows", stats.LaborRows),
			)
			return nil
		},
	}
	cmd.Flags().Int("quarters", 96, "number of quarters to generate")
	cmd.Flags().String("start", "2000-01-01", "first quarter (YYYY-MM-DD)")
	cmd.Flags().Uint64("seed", 1, "random seed")
	return cmd
}
