// Copyright (c) 2025 BVK Chaitanya

// Package envfile loads KEY=VALUE assignments from a dotenv style file into
// the process environment.
package envfile

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strconv"
	"strings"
)

type options struct {
	variableNamePrefix string

	dirs []string

	searchCurrentDirectory bool

	scanParentDirectories bool

	overwriteIfExists bool
}

// UpdateEnv updates current process's environment with the values read from
// the first env file found in the search path. Search path is the user's home
// directory unless changed by the input options. Returns the path of the file
// loaded or an empty string if no file was found.
//
// Blank lines and lines starting with # are ignored. An optional "export "
// prefix is accepted and double or single quoted values are unquoted.
func UpdateEnv(filename string, opts ...Option) (string, error) {
	if strings.ContainsRune(filename, os.PathSeparator) {
		return "", fmt.Errorf("file name contains path separator: %w", os.ErrInvalid)
	}
	var fopts options
	for _, v := range opts {
		if err := v.apply(&fopts); err != nil {
			return "", err
		}
	}
	fpaths, err := searchPaths(filename, &fopts)
	if err != nil {
		return "", err
	}
	for _, fpath := range fpaths {
		vars, err := parseFile(fpath)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return "", err
		}
		for _, kv := range vars {
			key := fopts.variableNamePrefix + kv[0]
			if len(os.Getenv(key)) != 0 && !fopts.overwriteIfExists {
				continue
			}
			if err := os.Setenv(key, kv[1]); err != nil {
				return "", fmt.Errorf("could not set %q: %w", key, err)
			}
		}
		return fpath, nil
	}
	return "", nil
}

func searchPaths(filename string, fopts *options) ([]string, error) {
	var fpaths []string
	for _, dir := range fopts.dirs {
		fpaths = append(fpaths, filepath.Join(dir, filename))
	}
	if fopts.searchCurrentDirectory {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		fpaths = append(fpaths, filepath.Join(cwd, filename))
		if fopts.scanParentDirectories {
			last, dir := cwd, filepath.Dir(cwd)
			for dir != last {
				fpaths = append(fpaths, filepath.Join(dir, filename))
				last, dir = dir, filepath.Dir(dir)
			}
		}
	}
	if len(fpaths) == 0 {
		user, err := user.Current()
		if err != nil {
			return nil, err
		}
		if len(user.HomeDir) == 0 {
			return nil, fmt.Errorf("could not determine current user's home directory")
		}
		fpaths = []string{filepath.Join(user.HomeDir, filename)}
	}
	return fpaths, nil
}

func parseFile(fpath string) ([][2]string, error) {
	fp, err := os.Open(fpath)
	if err != nil {
		return nil, err
	}
	defer fp.Close()

	var vars [][2]string
	scanner := bufio.NewScanner(fp)
	for i := 1; scanner.Scan(); i++ {
		line := strings.TrimSpace(scanner.Text())
		if len(line) == 0 || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("%s: invalid variable assignment on line %d: %w", fpath, i, os.ErrInvalid)
		}
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)
		if !nameRe.MatchString(key) {
			return nil, fmt.Errorf("%s: invalid environment variable name %q on line %d: %w", fpath, key, i, os.ErrInvalid)
		}
		if n := len(value); n >= 2 {
			switch {
			case value[0] == '"' && value[n-1] == '"':
				s, err := strconv.Unquote(value)
				if err != nil {
					return nil, fmt.Errorf("%s: invalid quoted value on line %d: %w", fpath, i, err)
				}
				value = s
			case value[0] == '\'' && value[n-1] == '\'':
				value = value[1 : n-1]
			}
		}
		vars = append(vars, [2]string{key, value})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("could not read %q: %w", fpath, err)
	}
	return vars, nil
}
