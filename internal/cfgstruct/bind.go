// Copyright (C) 2026 Tattoo Catalog Contributors
// See LICENSE for copying information.

// Package cfgstruct binds a nested config struct to a pflag.FlagSet by
// reflection, deriving one flag per leaf field from its Go name and a
// `default:"..."` struct tag. viper then layers environment variables
// on top of the same flag set (see config.Load).
package cfgstruct

import (
	"fmt"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/spf13/pflag"
)

// BindOpt customizes how Bind expands default tags.
type BindOpt func(*bindOpts)

type bindOpts struct {
	confDir       string
	confDirNested bool
}

// ConfDir causes "$CONFDIR"/"${CONFDIR}" in default tags to expand to
// dir, unchanged across nesting levels.
func ConfDir(dir string) BindOpt {
	return func(o *bindOpts) { o.confDir = dir }
}

// ConfDirNested is like ConfDir, but nests dir under the kebab-case path
// of each enclosing struct field, so sibling subsystems that each want a
// "state directory" default to sibling directories instead of colliding.
func ConfDirNested(dir string) BindOpt {
	return func(o *bindOpts) {
		o.confDir = dir
		o.confDirNested = true
	}
}

// Bind walks ptr (a pointer to a struct) and registers one flag per leaf
// field on f, named after the dotted, kebab-cased path of Go field names.
func Bind(f *pflag.FlagSet, ptr interface{}, opts ...BindOpt) {
	o := &bindOpts{}
	for _, opt := range opts {
		opt(o)
	}
	v := reflect.ValueOf(ptr).Elem()
	bindStruct(f, v, "", o.confDir, o)
}

func bindStruct(f *pflag.FlagSet, v reflect.Value, prefix, confDir string, o *bindOpts) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.PkgPath != "" {
			continue // unexported
		}
		fieldValue := v.Field(i)
		name := kebab(field.Name)
		flagName := name
		if prefix != "" {
			flagName = prefix + "." + name
		}

		switch field.Type.Kind() {
		case reflect.Struct:
			nestedDir := confDir
			if o.confDirNested && confDir != "" {
				nestedDir = filepath.Join(confDir, name)
			}
			bindStruct(f, fieldValue, flagName, nestedDir, o)

		case reflect.Array:
			width := len(strconv.Itoa(fieldValue.Len()))
			for idx := 0; idx < fieldValue.Len(); idx++ {
				elemName := fmt.Sprintf("%s.%0*d", flagName, width, idx)
				elem := fieldValue.Index(idx)
				if elem.Kind() == reflect.Struct && elem.Type() != reflect.TypeOf(time.Duration(0)) {
					bindStruct(f, elem, elemName, confDir, o)
				} else {
					bindLeaf(f, elem, elemName, field.Tag.Get("default"), confDir)
				}
			}

		default:
			bindLeaf(f, fieldValue, flagName, field.Tag.Get("default"), confDir)
		}
	}
}

func bindLeaf(f *pflag.FlagSet, v reflect.Value, name, def, confDir string) {
	def = expandConfDir(def, confDir)

	switch v.Kind() {
	case reflect.String:
		f.StringVar(v.Addr().Interface().(*string), name, def, "")
	case reflect.Bool:
		b, _ := strconv.ParseBool(orZero(def, "false"))
		f.BoolVar(v.Addr().Interface().(*bool), name, b, "")
	case reflect.Int64:
		if v.Type() == reflect.TypeOf(time.Duration(0)) {
			d, _ := time.ParseDuration(orZero(def, "0"))
			f.DurationVar(v.Addr().Interface().(*time.Duration), name, d, "")
			return
		}
		n, _ := strconv.ParseInt(orZero(def, "0"), 10, 64)
		f.Int64Var(v.Addr().Interface().(*int64), name, n, "")
	case reflect.Int:
		n, _ := strconv.Atoi(orZero(def, "0"))
		f.IntVar(v.Addr().Interface().(*int), name, n, "")
	case reflect.Uint64:
		n, _ := strconv.ParseUint(orZero(def, "0"), 10, 64)
		f.Uint64Var(v.Addr().Interface().(*uint64), name, n, "")
	case reflect.Uint:
		n, _ := strconv.ParseUint(orZero(def, "0"), 10, 64)
		f.UintVar(v.Addr().Interface().(*uint), name, uint(n), "")
	case reflect.Float64:
		n, _ := strconv.ParseFloat(orZero(def, "0"), 64)
		f.Float64Var(v.Addr().Interface().(*float64), name, n, "")
	default:
		panic(fmt.Sprintf("cfgstruct: unsupported field kind %s for flag %q", v.Kind(), name))
	}
}

func orZero(s, zero string) string {
	if s == "" {
		return zero
	}
	return s
}

func expandConfDir(s, confDir string) string {
	s = strings.ReplaceAll(s, "${CONFDIR}", confDir)
	s = strings.ReplaceAll(s, "$CONFDIR", confDir)
	return s
}

func kebab(name string) string {
	var b strings.Builder
	runes := []rune(name)
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prev := runes[i-1]
			if unicode.IsLower(prev) || unicode.IsDigit(prev) {
				b.WriteByte('-')
			} else if i+1 < len(runes) && unicode.IsLower(runes[i+1]) {
				b.WriteByte('-')
			}
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}
