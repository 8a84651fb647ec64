package sop

import (
	"bufio"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

// Duplicate records a token claimed by two documents. The first document
// keeps the token; this is an authoring error, not a runtime one.
type Duplicate struct {
	Token string
	Path1 string
	Path2 string
}

var (
	headerRegex     = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)
	blockquoteRe    = regexp.MustCompile(`^>\s?(.*)$`)
	frontMatterLine = regexp.MustCompile(`^---\s*$`)
)

// frontMatter is the optional YAML block at the top of a document
type frontMatter struct {
	ID          string   `yaml:"id"`
	Title       string   `yaml:"title"`
	Aliases     []string `yaml:"aliases"`
	Description string   `yaml:"description"`
}

// Parser builds a Library from markdown files on disk
type Parser struct {
	exclude []string
	lib     *Library
}

// NewParser creates a parser that skips files matching any exclude glob.
// Globs are matched against slash-separated paths relative to the root.
func NewParser(exclude []string) *Parser {
	return &Parser{
		exclude: exclude,
	}
}

// ParseDirectory recursively parses all markdown files under dir
func (p *Parser) ParseDirectory(dir string) (*Library, error) {
	p.lib = newLibrary(dir)

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(dir, path)
		if relErr != nil {
			return relErr
		}
		if rel != "." && p.excluded(filepath.ToSlash(rel)) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if strings.HasSuffix(strings.ToLower(path), ".md") {
			if err := p.parseFile(path); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	p.lib.findDuplicates()
	return p.lib, nil
}

// ParseSingleFile parses a single markdown file; its directory becomes the root
func (p *Parser) ParseSingleFile(path string) (*Library, error) {
	p.lib = newLibrary(filepath.Dir(path))
	if err := p.parseFile(path); err != nil {
		return nil, err
	}
	return p.lib, nil
}

func (p *Parser) excluded(rel string) bool {
	for _, pattern := range p.exclude {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

func (p *Parser) parseFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	rel, err := filepath.Rel(p.lib.root, path)
	if err != nil {
		return err
	}

	summary, err := parseLines(lines)
	if err != nil {
		return fmt.Errorf("%s: %w", rel, err)
	}
	summary.Path = canonicalPath(rel)
	summary.Filename = filepath.Base(path)

	p.lib.add(summary, path)
	return nil
}

// canonicalPath turns "tools/bash.md" into "tools/bash"
func canonicalPath(rel string) string {
	rel = filepath.ToSlash(rel)
	if ext := filepath.Ext(rel); strings.EqualFold(ext, ".md") {
		rel = rel[:len(rel)-len(ext)]
	}
	return rel
}

// parseLines reads front matter and falls back to the first heading and
// blockquote for the title and description
func parseLines(lines []string) (Summary, error) {
	var s Summary

	start, fm, err := splitFrontMatter(lines)
	if err != nil {
		return s, err
	}
	s.ID = fm.ID
	s.Title = fm.Title
	s.Aliases = fm.Aliases
	s.Description = fm.Description

	inCodeBlock := false
	for _, line := range lines[start:] {
		if strings.HasPrefix(line, "```") {
			inCodeBlock = !inCodeBlock
			continue
		}
		if inCodeBlock {
			continue
		}
		if s.Title == "" {
			if matches := headerRegex.FindStringSubmatch(line); matches != nil {
				s.Title = strings.TrimSpace(matches[2])
				continue
			}
		}
		if s.Description == "" {
			if matches := blockquoteRe.FindStringSubmatch(line); matches != nil {
				s.Description = strings.TrimSpace(matches[1])
			}
		}
		if s.Title != "" && s.Description != "" {
			break
		}
	}

	return s, nil
}

// splitFrontMatter returns the index of the first body line and the parsed
// front matter. Documents without front matter start their body at line 0.
func splitFrontMatter(lines []string) (int, frontMatter, error) {
	var fm frontMatter
	if len(lines) == 0 || !frontMatterLine.MatchString(lines[0]) {
		return 0, fm, nil
	}
	for i := 1; i < len(lines); i++ {
		if frontMatterLine.MatchString(lines[i]) {
			block := strings.Join(lines[1:i], "\n")
			if err := yaml.Unmarshal([]byte(block), &fm); err != nil {
				return 0, fm, fmt.Errorf("front matter: %w", err)
			}
			return i + 1, fm, nil
		}
	}
	// Unterminated block: treat the whole file as body
	return 0, fm, nil
}

// stripFrontMatter returns the document body without its front matter
func stripFrontMatter(content string) (string, error) {
	lines := strings.Split(content, "\n")
	start, _, err := splitFrontMatter(lines)
	if err != nil {
		return "", err
	}
	if start == 0 {
		return content, nil
	}
	return strings.Join(lines[start:], "\n"), nil
}
