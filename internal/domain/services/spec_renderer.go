package services

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/ochairo/quizpack/internal/domain/entities"
)

const pyInstallerSpecTemplate = `# -*- mode: python ; coding: utf-8 -*-
# Generated by quizpack; edit the build profile instead.

block_cipher = None

a = Analysis(
    [{{py .EntryPoint}}],
    pathex=[],
    binaries=[{{range .Binaries}}
        ({{py .Source}}, {{py .Destination}}),{{end}}
    ],
    datas=[{{range .Datas}}
        ({{py .Source}}, {{py .Destination}}),{{end}}
    ],
    hiddenimports=[{{range .HiddenImports}}
        {{py .}},{{end}}
    ],
    hookspath=[],
    hooksconfig={},
    runtime_hooks=[],
    excludes=[],
    win_no_prefer_redirects=False,
    win_private_assemblies=False,
    cipher=block_cipher,
    noarchive=False,
)

pyz = PYZ(a.pure, a.zipped_data, cipher=block_cipher)
{{with .Options}}{{if .OneFile}}
exe = EXE(
    pyz,
    a.scripts,
    a.binaries,
    a.zipfiles,
    a.datas,
    [],
    name={{py .Name}},
    debug=False,
    bootloader_ignore_signals=False,
    strip=False,
    upx={{pybool .UPX}},
    upx_exclude=[],
    runtime_tmpdir=None,
    console={{pybool .Console}},
    disable_windowed_traceback=False,
    argv_emulation={{pybool .ArgvEmulation}},
    target_arch=None,
    codesign_identity=None,
    entitlements_file=None,
)
{{else}}
exe = EXE(
    pyz,
    a.scripts,
    [],
    exclude_binaries=True,
    name={{py .Name}},
    debug=False,
    bootloader_ignore_signals=False,
    strip=False,
    upx={{pybool .UPX}},
    console={{pybool .Console}},
    disable_windowed_traceback=False,
    argv_emulation={{pybool .ArgvEmulation}},
    target_arch=None,
    codesign_identity=None,
    entitlements_file=None,
)

coll = COLLECT(
    exe,
    a.binaries,
    a.zipfiles,
    a.datas,
    strip=False,
    upx={{pybool .UPX}},
    upx_exclude=[],
    name={{py .Name}},
)
{{end}}{{end}}`

const py2appSetupTemplate = `# Generated by quizpack; edit the build profile instead.
from setuptools import setup

APP = [{{py .EntryPoint}}]
DATA_FILES = [{{range .Datas}}
    ({{py .Destination}}, []),{{end}}
]
OPTIONS = {
    'argv_emulation': {{pybool .ArgvEmulation}},
    'packages': [{{range $i, $p := .App.Packages}}{{if $i}}, {{end}}{{py $p}}{{end}}],
    'includes': [{{range $i, $p := .App.Includes}}{{if $i}}, {{end}}{{py $p}}{{end}}],
    'iconfile': None,
    'plist': {
        'CFBundleName': {{py .App.BundleName}},
        'CFBundleDisplayName': {{py .App.BundleName}},
        'CFBundleIdentifier': {{py .App.BundleIdentifier}},
        'CFBundleVersion': {{py .App.Version}},
        'CFBundleShortVersionString': {{py .App.Version}},
    }
}

setup(
    app=APP,
    data_files=DATA_FILES,
    options={'py2app': OPTIONS},
    setup_requires=['py2app'],
)
`

var templateFuncs = template.FuncMap{
	"py":     pyString,
	"pybool": pyBool,
}

var (
	specTmpl  = template.Must(template.New("spec").Funcs(templateFuncs).Parse(pyInstallerSpecTemplate))
	setupTmpl = template.Must(template.New("setup").Funcs(templateFuncs).Parse(py2appSetupTemplate))
)

// RenderPyInstallerSpec renders the payload as a PyInstaller spec file
func RenderPyInstallerSpec(payload entities.PackagingPayload) (string, error) {
	if payload.EntryPoint == "" {
		return "", fmt.Errorf("payload has no entry point")
	}
	if payload.Options.Name == "" {
		return "", fmt.Errorf("payload has no executable name")
	}

	var buf bytes.Buffer
	if err := specTmpl.Execute(&buf, payload); err != nil {
		return "", fmt.Errorf("failed to render spec file: %w", err)
	}
	return buf.String(), nil
}

// RenderPy2AppSetup renders the setup.py consumed by py2app
func RenderPy2AppSetup(profile *entities.BuildProfile) (string, error) {
	if profile.EntryPoint == "" {
		return "", fmt.Errorf("profile %s has no entry point", profile.Name)
	}

	data := struct {
		EntryPoint    string
		Datas         []entities.DataFileMapping
		ArgvEmulation bool
		App           entities.AppBundleConfig
	}{
		EntryPoint:    profile.EntryPoint,
		Datas:         profile.Datas,
		ArgvEmulation: profile.Executable.ArgvEmulation,
		App:           profile.App,
	}

	var buf bytes.Buffer
	if err := setupTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render setup.py: %w", err)
	}
	return buf.String(), nil
}

// pyString quotes s as a single-quoted Python string literal
func pyString(s string) string {
	var b strings.Builder
	b.WriteByte('\'')
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '\'':
			b.WriteString(`\'`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('\'')
	return b.String()
}

func pyBool(v bool) string {
	if v {
		return "True"
	}
	return "False"
}
