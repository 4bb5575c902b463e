package services

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"text/template"
	"unicode"
)

const runHelperTemplate = `#!/bin/bash
# Launcher for {{.Executable}}

DIR="$( cd "$( dirname "${BASH_SOURCE[0]}" )" && pwd )"
cd "$DIR" || exit 1
{{if .APIKeys}}
echo "Set the API key of at least one provider before generating quizzes:"
{{- range .APIKeys}}
echo '  export {{.}}="your-api-key"'
{{- end}}
echo ""
{{end}}
exec {{sh (print "./" .Executable)}} "$@"
`

const appWrapperTemplate = `#!/bin/bash
# {{.Executable}} single-file wrapper around the app bundle

DIR="$( cd "$( dirname "${BASH_SOURCE[0]}" )" && pwd )"

exec "$DIR/"{{sh .BundleBinary}} "$@"
`

var (
	runHelperTmpl  = template.Must(template.New("run").Funcs(template.FuncMap{"sh": shQuote}).Parse(runHelperTemplate))
	appWrapperTmpl = template.Must(template.New("wrapper").Funcs(template.FuncMap{"sh": shQuote}).Parse(appWrapperTemplate))
)

// RenderRunHelper renders the script shipped next to the executable in the
// archive. It changes to its own directory, prints API key guidance and execs
// the executable.
func RenderRunHelper(executable string, apiKeys []string) (string, error) {
	if err := checkScriptValue("executable name", executable); err != nil {
		return "", err
	}
	for _, key := range apiKeys {
		if !envName.MatchString(key) {
			return "", fmt.Errorf("API key name %q is not a valid environment variable name", key)
		}
	}

	var buf bytes.Buffer
	err := runHelperTmpl.Execute(&buf, struct {
		Executable string
		APIKeys    []string
	}{executable, apiKeys})
	if err != nil {
		return "", fmt.Errorf("failed to render run helper: %w", err)
	}
	return buf.String(), nil
}

// RenderAppWrapper renders the dist/<name> script that runs the binary inside
// an app bundle. bundleBinary is relative to the wrapper's directory.
func RenderAppWrapper(executable, bundleBinary string) (string, error) {
	if err := checkScriptValue("executable name", executable); err != nil {
		return "", err
	}
	if err := checkScriptValue("bundle binary path", bundleBinary); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	err := appWrapperTmpl.Execute(&buf, struct {
		Executable   string
		BundleBinary string
	}{executable, bundleBinary})
	if err != nil {
		return "", fmt.Errorf("failed to render app wrapper: %w", err)
	}
	return buf.String(), nil
}

var envName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// checkScriptValue rejects values that would break out of a script line
func checkScriptValue(what, v string) error {
	if v == "" {
		return fmt.Errorf("%s is required", what)
	}
	if i := strings.IndexFunc(v, unicode.IsControl); i >= 0 {
		return fmt.Errorf("%s %q contains a control character", what, v)
	}
	return nil
}

// shQuote single-quotes s for POSIX shells
func shQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
