package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"videogen/internal/captions"
	"videogen/internal/config"
	"videogen/internal/media"
	"videogen/internal/services/songprovider"
)

const (
	formatTable = "table"
	formatSRT   = "srt"
	formatASS   = "ass"
)

func newComposeCommand(ctx *commandContext) *cobra.Command {
	var wordsPath string
	var lyricsPath string
	var duration float64
	var format string

	cmd := &cobra.Command{
		Use:   "compose",
		Short: "Compose caption lines from saved word timings or lyrics",
		Long: "Compose groups provider word timings (--words) into caption lines the way a\n" +
			"full video render would. With --lyrics instead, it produces the fixed-interval\n" +
			"blocks used when no word timings are available.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			lines, err := composeLines(cfg, wordsPath, lyricsPath, duration)
			if err != nil {
				return err
			}
			return writeLines(cmd.OutOrStdout(), cfg, lines, format)
		},
	}

	cmd.Flags().StringVar(&wordsPath, "words", "", "JSON file with aligned words (array or provider response)")
	cmd.Flags().StringVar(&lyricsPath, "lyrics", "", "Plain lyrics file for fixed-interval captions")
	cmd.Flags().Float64Var(&duration, "duration", 0, "Audio duration in seconds")
	cmd.Flags().StringVar(&format, "format", formatTable, "Output format: table, srt or ass")
	_ = cmd.MarkFlagRequired("duration")
	cmd.MarkFlagsOneRequired("words", "lyrics")
	cmd.MarkFlagsMutuallyExclusive("words", "lyrics")
	return cmd
}

func composeLines(cfg *config.Config, wordsPath, lyricsPath string, duration float64) ([]captions.Line, error) {
	if wordsPath != "" {
		data, err := os.ReadFile(wordsPath)
		if err != nil {
			return nil, fmt.Errorf("read words: %w", err)
		}
		words, err := songprovider.WordsFromJSON(data)
		if err != nil {
			return nil, err
		}
		composer, err := captions.NewComposer(captions.OptionsFromConfig(cfg.Captions))
		if err != nil {
			return nil, err
		}
		return composer.Compose(words, duration)
	}

	data, err := os.ReadFile(lyricsPath)
	if err != nil {
		return nil, fmt.Errorf("read lyrics: %w", err)
	}
	return captions.FixedIntervalLines(string(data), duration, cfg.Captions.FixedIntervalBlocks)
}

func writeLines(out io.Writer, cfg *config.Config, lines []captions.Line, format string) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case formatTable, "":
		fmt.Fprintln(out, renderLinesTable(lines, shouldColorize(out)))
		fmt.Fprintf(out, "%d lines\n", len(lines))
		return nil
	case formatSRT:
		return captions.WriteSRT(out, lines)
	case formatASS:
		tools := media.New(media.SettingsFromConfig(cfg.Render), nil)
		style := tools.StyleFor(cfg.Captions.FontName, cfg.Captions.FontSize, cfg.Captions.MarginV)
		return captions.WriteASS(out, lines, style)
	default:
		return errors.New("unsupported format " + format + " (want table, srt or ass)")
	}
}

func renderLinesTable(lines []captions.Line, colorize bool) string {
	rows := make([][]string, 0, len(lines))
	for i, line := range lines {
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			captions.FormatSRTTime(line.Start),
			captions.FormatSRTTime(line.End),
			fmt.Sprintf("%.1f", captions.WeightedLength(line.Text)),
			strings.ReplaceAll(line.Text, "\n", " / "),
		})
	}
	return renderTable(
		[]string{"#", "Start", "End", "Weight", "Text"},
		rows,
		[]columnAlignment{alignRight, alignRight, alignRight, alignRight, alignLeft},
		colorize,
	)
}
