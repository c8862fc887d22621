package i18n

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"io/fs"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"testing"

	"gopkg.in/yaml.v2"

	"github.com/iamwavecut/darkroom/resources"
)

// translated keys are passed either to i18n.Get or to the moderation formatReply helper.
var keyFuncs = map[string]bool{
	"Get":         true,
	"formatReply": true,
}

func TestTranslationsCoverUsedKeys(t *testing.T) {
	t.Parallel()

	used, err := collectUsedI18nKeys()
	if err != nil {
		t.Fatalf("collect used i18n keys: %v", err)
	}
	if len(used) == 0 {
		t.Fatalf("no i18n keys found in sources")
	}

	catalogues, err := loadCatalogues()
	if err != nil {
		t.Fatalf("load catalogues: %v", err)
	}
	if len(catalogues) == 0 {
		t.Fatalf("no catalogues embedded")
	}

	for lang, dict := range catalogues {
		var missing []string
		for _, key := range used {
			if _, ok := dict[key]; !ok {
				missing = append(missing, key)
			}
		}
		if len(missing) > 0 {
			t.Fatalf("missing %s translation keys:\n%s", lang, strings.Join(missing, "\n"))
		}
	}
}

func TestGetFallsBackToKey(t *testing.T) {
	t.Parallel()

	if got := Get("Authentication failed.", "en"); got != "Authentication failed." {
		t.Fatalf("english must return key, got %q", got)
	}
	if got := Get("Authentication failed.", "xx"); got != "Authentication failed." {
		t.Fatalf("unknown language must return key, got %q", got)
	}
	if got := Get("no such key", "zh"); got != "no such key" {
		t.Fatalf("unknown key must return key, got %q", got)
	}
	if got := Get("Authentication failed.", "zh"); got != "认证失败。" {
		t.Fatalf("unexpected zh translation: %q", got)
	}
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"zh-hans": "zh",
		"RU":      "ru",
		"en_US":   "en",
		"de":      "",
		"":        "",
	}
	for in, want := range tests {
		if got := Normalize(in); got != want {
			t.Fatalf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func loadCatalogues() (map[string]map[string]string, error) {
	entries, err := fs.ReadDir(resources.FS, "i18n")
	if err != nil {
		return nil, err
	}
	res := make(map[string]map[string]string)
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".yml" {
			continue
		}
		data, err := resources.FS.ReadFile("i18n/" + e.Name())
		if err != nil {
			return nil, err
		}
		dict := make(map[string]string)
		if err := yaml.Unmarshal(data, &dict); err != nil {
			return nil, fmt.Errorf("%s: %w", e.Name(), err)
		}
		res[strings.TrimSuffix(e.Name(), ".yml")] = dict
	}
	return res, nil
}

func collectUsedI18nKeys() ([]string, error) {
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		return nil, fmt.Errorf("cant resolve test file path")
	}
	internalDir := filepath.Dir(filepath.Dir(file))

	keys := make(map[string]struct{})
	fset := token.NewFileSet()
	err := filepath.WalkDir(internalDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}
		f, err := parser.ParseFile(fset, path, nil, 0)
		if err != nil {
			return err
		}
		ast.Inspect(f, func(n ast.Node) bool {
			call, ok := n.(*ast.CallExpr)
			if !ok || len(call.Args) == 0 {
				return true
			}
			var name string
			switch fn := call.Fun.(type) {
			case *ast.SelectorExpr:
				if pkg, ok := fn.X.(*ast.Ident); !ok || pkg.Name != "i18n" {
					return true
				}
				name = fn.Sel.Name
			case *ast.Ident:
				name = fn.Name
			default:
				return true
			}
			if !keyFuncs[name] {
				return true
			}
			lit, ok := call.Args[0].(*ast.BasicLit)
			if !ok || lit.Kind != token.STRING {
				return true
			}
			key, err := strconv.Unquote(lit.Value)
			if err == nil {
				keys[key] = struct{}{}
			}
			return true
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	res := make([]string, 0, len(keys))
	for k := range keys {
		res = append(res, k)
	}
	sort.Strings(res)
	return res, nil
}
