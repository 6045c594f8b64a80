package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/typist/internal/config"
	"github.com/verte-zerg/typist/internal/dictionary"
	"github.com/verte-zerg/typist/internal/wordlist"
)

var (
	importLang  string
	importForce bool
)

func newLangsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "langs",
		Short: "List available dictionary languages",
		Args:  cobra.NoArgs,
		RunE:  runLangsCmd,
	}
}

func runLangsCmd(cmd *cobra.Command, _ []string) error {
	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	langs, err := dictionary.NewLoader(settings.Dictionary.Dir, nil, nil).Languages()
	if err != nil {
		if os.IsNotExist(err) {
			logErrf("No dictionaries found. Import one with: typist dict import --lang <code> <file>\n")
			return fmt.Errorf("dictionary directory does not exist")
		}
		return fmt.Errorf("failed to read dictionary directory: %w", err)
	}
	if len(langs) == 0 {
		logErrf("No dictionaries found. Import one with: typist dict import --lang <code> <file>\n")
		return fmt.Errorf("no dictionaries found")
	}
	for _, lang := range langs {
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), lang); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func newDictCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dict",
		Short: "Manage dictionaries",
	}
	importCmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Filter a word list and install it as a dictionary",
		Args:  cobra.ExactArgs(1),
		RunE:  runDictImportCmd,
	}
	importCmd.Flags().StringVar(&importLang, "lang", "", "language code, e.g. en or ru")
	importCmd.Flags().BoolVar(&importForce, "force", false, "overwrite an existing dictionary")
	cmd.AddCommand(importCmd)
	return cmd
}

func runDictImportCmd(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	outPath, count, err := importDictionary(settings.Dictionary.Dir, importLang, args[0], importForce)
	if err != nil {
		return err
	}
	logErrf("Wrote %d words to %s\n", count, outPath)

	if settings.Dictionary.Cache == config.CacheRedis {
		rdb := newRedisClient(settings)
		defer func() {
			if err := rdb.Close(); err != nil {
				logErrf("failed to close redis client: %v\n", err)
			}
		}()
		ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Second)
		defer cancel()
		if err := dictionary.NewRedisCache(rdb, 0).Delete(ctx, importLang); err != nil {
			logErrf("failed to invalidate cached dictionary: %v\n", err)
		}
	}
	return nil
}

// importDictionary filters src and writes it as <dir>/<lang>.txt.
func importDictionary(dir, lang, src string, force bool) (string, int, error) {
	if !dictionary.ValidLang(lang) {
		return "", 0, fmt.Errorf("invalid --lang %q (expected a code like en, ru or pt-br)", lang)
	}
	outPath := dictionary.Path(dir, lang)
	if !force {
		if _, err := os.Stat(outPath); err == nil {
			return "", 0, fmt.Errorf("dictionary already exists: %s (use --force to overwrite)", outPath)
		} else if !os.IsNotExist(err) {
			return "", 0, fmt.Errorf("failed to stat dictionary: %w", err)
		}
	}

	raw, err := wordlist.LoadWords(src)
	if err != nil {
		return "", 0, fmt.Errorf("failed to read %s: %w", src, err)
	}
	words := dedupe(wordlist.Filter(raw, wordlist.Alphabetic))
	if len(words) == 0 {
		return "", 0, fmt.Errorf("%s contains no usable words", src)
	}
	if skipped := len(raw) - len(words); skipped > 0 {
		logErrf("Skipped %d entries (non-alphabetic, mixed script or duplicate)\n", skipped)
	}
	if err := writeWordList(outPath, words); err != nil {
		return "", 0, fmt.Errorf("failed to write %s: %w", outPath, err)
	}
	return outPath, len(words), nil
}

func dedupe(words []string) []string {
	seen := make(map[string]struct{}, len(words))
	out := words[:0]
	for _, word := range words {
		if _, ok := seen[word]; ok {
			continue
		}
		seen[word] = struct{}{}
		out = append(out, word)
	}
	return out
}

func writeWordList(path string, words []string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create dictionary dir: %w", err)
	}
	tmpFile, err := os.CreateTemp(filepath.Dir(path), "dict-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp dictionary: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	writer := bufio.NewWriter(tmpFile)
	for _, word := range words {
		if _, err := fmt.Fprintln(writer, word); err != nil {
			return fmt.Errorf("failed to write dictionary: %w", err)
		}
	}
	if err := writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush dictionary: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close dictionary: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return fmt.Errorf("failed to set dictionary permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to install dictionary: %w", err)
	}
	return nil
}
