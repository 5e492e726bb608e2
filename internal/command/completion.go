// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package command

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"text/template"

	"github.com/urfave/cli/v3"

	"github.com/staranto/coursectl/internal/meta"
)

// completionCommand is one entry of the generated scripts.
type completionCommand struct {
	Name  string
	Usage string
	Flags []completionFlag
	Subs  []string
}

type completionFlag struct {
	Names []string
	Usage string
}

// Opts are the words bash offers for the command.
func (c completionCommand) Opts() string {
	var words []string
	for _, f := range c.Flags {
		words = append(words, f.Names...)
	}
	return strings.Join(append(c.Subs, words...), " ")
}

// Zsh renders the flag as an _arguments spec.
func (f completionFlag) Zsh() string {
	usage := strings.NewReplacer("[", "(", "]", ")", "'", "").Replace(f.Usage)
	if len(f.Names) == 1 {
		return fmt.Sprintf("'%s[%s]'", f.Names[0], usage)
	}
	return fmt.Sprintf("'(%s)'{%s}'[%s]'", strings.Join(f.Names, " "), strings.Join(f.Names, ","), usage)
}

var bashCompletionTemplate = template.Must(template.New("bash").Parse(`# bash completion for coursectl
_coursectl()
{
    local cur prev cmd
    COMPREPLY=()
    cur=${COMP_WORDS[COMP_CWORD]}
    prev=${COMP_WORDS[COMP_CWORD-1]}

    if [[ ${COMP_CWORD} -eq 1 ]]; then
        COMPREPLY=( $(compgen -W "{{ range .Commands }}{{ .Name }} {{ end }}--help --version" -- "$cur") )
        return 0
    fi

    if [[ "$prev" == "--output" || "$prev" == "-o" ]]; then
        COMPREPLY=( $(compgen -W "{{ .Outputs }}" -- "$cur") )
        return 0
    fi

    cmd=${COMP_WORDS[1]}
    case "$cmd" in
{{- range .Commands }}
    {{ .Name }})
        COMPREPLY=( $(compgen -W "{{ .Opts }}" -- "$cur") )
        ;;
{{- end }}
    esac
    return 0
}

complete -o default -F _coursectl coursectl
`))

var zshCompletionTemplate = template.Must(template.New("zsh").Parse(`#compdef coursectl

_coursectl() {
  local -a cmds
  cmds=(
{{- range .Commands }}
    '{{ .Name }}:{{ .Usage }}'
{{- end }}
  )

  if (( CURRENT == 2 )); then
    _describe -t commands 'coursectl commands' cmds
    return
  fi

  case $words[2] in
{{- range .Commands }}
    {{ .Name }})
      _arguments -C \
{{- range .Flags }}
        {{ .Zsh }} \
{{- end }}
{{- if .Subs }}
        '1: :({{ range .Subs }}{{ . }} {{ end }})' \
{{- end }}
        '*::arg:_default'
      ;;
{{- end }}
  esac
}

if ! typeset -f compdef >/dev/null 2>&1; then
  autoload -Uz compinit && compinit -i
fi
compdef _coursectl coursectl
`))

// completionCommands walks the command tree below root. Hidden flags and
// commands are left out. The flags of subcommands are folded into their
// parent so that "cache purge --hours" still completes.
func completionCommands(root *cli.Command) []completionCommand {
	var out []completionCommand
	for _, c := range root.Commands {
		if c.Hidden || c.Name == "help" {
			continue
		}
		cc := completionCommand{Name: c.Name, Usage: c.Usage}
		seen := map[string]bool{}
		collect := func(flags []cli.Flag) {
			for _, f := range flags {
				if vf, ok := f.(cli.VisibleFlag); ok && !vf.IsVisible() {
					continue
				}
				cf := completionFlag{}
				for _, n := range f.Names() {
					if len(n) == 1 {
						cf.Names = append(cf.Names, "-"+n)
					} else {
						cf.Names = append(cf.Names, "--"+n)
					}
				}
				if seen[cf.Names[0]] {
					continue
				}
				seen[cf.Names[0]] = true
				if df, ok := f.(cli.DocGenerationFlag); ok {
					cf.Usage = df.GetUsage()
				}
				cc.Flags = append(cc.Flags, cf)
			}
		}
		collect(c.Flags)
		for _, sub := range c.Commands {
			cc.Subs = append(cc.Subs, sub.Name)
			collect(sub.Flags)
		}
		slices.SortFunc(cc.Flags, func(a, b completionFlag) int {
			return strings.Compare(a.Names[0], b.Names[0])
		})
		out = append(out, cc)
	}
	return out
}

// WriteCompletion renders the completion script for shell.
func WriteCompletion(w io.Writer, root *cli.Command, shell string) error {
	data := struct {
		Commands []completionCommand
		Outputs  string
	}{
		Commands: completionCommands(root),
		Outputs:  strings.Join(validOutputFlagValues, " "),
	}

	switch shell {
	case "bash":
		return bashCompletionTemplate.Execute(w, data)
	case "zsh":
		return zshCompletionTemplate.Execute(w, data)
	}
	return fmt.Errorf("unsupported shell %q", shell)
}

func CompletionCommandAction(ctx context.Context, cmd *cli.Command) error {
	shell := cmd.Args().First()
	if shell == "" {
		// Try to detect from SHELL.
		sh := os.Getenv("SHELL")
		switch {
		case strings.HasSuffix(sh, "zsh"):
			shell = "zsh"
		case strings.HasSuffix(sh, "bash"):
			shell = "bash"
		default:
			return fmt.Errorf("usage: coursectl completion [bash|zsh]")
		}
	}
	return WriteCompletion(writer(cmd), cmd.Root(), shell)
}

func CompletionCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "completion",
		Usage:     "generate shell completion script",
		UsageText: "coursectl completion [bash|zsh]",
		Metadata: map[string]any{
			"meta": meta,
		},
		Action: CompletionCommandAction,
	}
}
