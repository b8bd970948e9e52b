package cli

import (
	"fmt"
	"io"
	"strings"
)

// Command is one kaiactl subcommand as offered to shell completion.
type Command struct {
	Name    string
	Summary string
}

// GenerateCompletion writes a completion script for prog to w.
func GenerateCompletion(w io.Writer, shell, prog string, cmds []Command) error {
	var script string
	switch shell {
	case "bash":
		script = bashCompletion(prog, cmds)
	case "zsh":
		script = zshCompletion(prog, cmds)
	case "fish":
		script = fishCompletion(prog, cmds)
	default:
		return fmt.Errorf("unsupported shell: %s (supported: bash, zsh, fish)", shell)
	}
	_, err := io.WriteString(w, script)
	return err
}

func names(cmds []Command) string {
	out := make([]string, 0, len(cmds))
	for _, c := range cmds {
		out = append(out, c.Name)
	}
	return strings.Join(out, " ")
}

func funcName(prog string) string {
	return "_" + strings.ReplaceAll(prog, "-", "_")
}

func bashCompletion(prog string, cmds []Command) string {
	fn := funcName(prog)
	return fmt.Sprintf(`#!/bin/bash
# Bash completion for %[1]s

%[2]s_completion() {
    local cur prev
    COMPREPLY=()
    cur="${COMP_WORDS[COMP_CWORD]}"
    prev="${COMP_WORDS[COMP_CWORD-1]}"

    case "${prev}" in
        -config|-env|-image)
            COMPREPLY=( $(compgen -f -- ${cur}) )
            return 0
            ;;
        completion)
            COMPREPLY=( $(compgen -W "bash zsh fish" -- ${cur}) )
            return 0
            ;;
    esac

    if [[ ${COMP_CWORD} -eq 1 ]]; then
        COMPREPLY=( $(compgen -W "%[3]s" -- ${cur}) )
    fi
    return 0
}

complete -F %[2]s_completion %[1]s
`, prog, fn, names(cmds))
}

func zshCompletion(prog string, cmds []Command) string {
	var b strings.Builder
	fmt.Fprintf(&b, "#compdef %s\n\n%s() {\n    local -a commands\n    commands=(\n", prog, funcName(prog))
	for _, c := range cmds {
		fmt.Fprintf(&b, "        '%s:%s'\n", c.Name, strings.ReplaceAll(c.Summary, "'", ""))
	}
	fmt.Fprintf(&b, "    )\n    _describe 'command' commands\n}\n\n%s \"$@\"\n", funcName(prog))
	return b.String()
}

func fishCompletion(prog string, cmds []Command) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Fish completion for %s\n\n", prog)
	for _, c := range cmds {
		fmt.Fprintf(&b, "complete -c %s -f -n \"__fish_use_subcommand\" -a %q -d %q\n", prog, c.Name, c.Summary)
	}
	fmt.Fprintf(&b, "complete -c %s -f -n \"__fish_seen_subcommand_from completion\" -a \"bash zsh fish\"\n", prog)
	return b.String()
}
