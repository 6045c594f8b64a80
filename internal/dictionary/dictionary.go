// Package dictionary loads filtered per-language word lists.
package dictionary

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/verte-zerg/typist/internal/wordlist"
)

var langPattern = regexp.MustCompile(`^[a-z]{2,3}(-[a-z0-9]{2,8})?$`)

// ValidLang reports whether lang is a well-formed language code.
func ValidLang(lang string) bool {
	return langPattern.MatchString(lang)
}

// Path returns the word list file for lang inside dir.
func Path(dir, lang string) string {
	return filepath.Join(dir, lang+".txt")
}

// Entry is a cached dictionary together with the version of the file it was read from.
type Entry struct {
	Version string
	Words   []string
}

// Cache stores filtered dictionaries by language code.
type Cache interface {
	Get(ctx context.Context, lang string) (Entry, bool, error)
	Set(ctx context.Context, lang string, entry Entry) error
}

// Loader reads dictionaries from a directory of <lang>.txt files.
type Loader struct {
	dir   string
	cache Cache
	log   *zap.Logger
}

// NewLoader returns a Loader. cache may be nil to always read from disk.
func NewLoader(dir string, cache Cache, log *zap.Logger) *Loader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Loader{dir: dir, cache: cache, log: log}
}

// Dir returns the dictionary directory.
func (l *Loader) Dir() string {
	return l.dir
}

// Load returns the filtered words for lang. An unknown or malformed language
// yields an empty result, not an error. Cached entries are used only while the
// file is unchanged. The returned slice must not be modified.
func (l *Loader) Load(ctx context.Context, lang string) ([]string, error) {
	if !ValidLang(lang) {
		return nil, nil
	}
	path := Path(l.dir, lang)
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	version := fileVersion(info)

	if l.cache != nil {
		entry, ok, err := l.cache.Get(ctx, lang)
		if err != nil {
			l.log.Warn("dictionary cache get failed", zap.String("lang", lang), zap.Error(err))
		} else if ok && entry.Version == version {
			return entry.Words, nil
		}
	}

	raw, err := wordlist.LoadWords(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	words := wordlist.Filter(raw, wordlist.Alphabetic)
	if len(words) == 0 {
		return nil, nil
	}

	if l.cache != nil {
		if err := l.cache.Set(ctx, lang, Entry{Version: version, Words: words}); err != nil {
			l.log.Warn("dictionary cache set failed", zap.String("lang", lang), zap.Error(err))
		}
	}
	return words, nil
}

// fileVersion identifies one revision of a word list file.
func fileVersion(info os.FileInfo) string {
	return strconv.FormatInt(info.ModTime().UnixNano(), 36) + "-" + strconv.FormatInt(info.Size(), 36)
}

// Languages lists the language codes that have a word list file.
func (l *Loader) Languages() ([]string, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, err
	}
	langs := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".txt") {
			continue
		}
		lang := strings.TrimSuffix(name, ".txt")
		if !ValidLang(lang) {
			continue
		}
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs, nil
}
