// Command shimdump inspects dumped shim class artifacts.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shimforge/shimforge/pkg/classfile"
	"github.com/shimforge/shimforge/pkg/emit"
)

func main() {
	root := &cobra.Command{
		Use:           "shimdump",
		Short:         "Inspect shim class artifacts",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(infoCmd(), disasmCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "shimdump:", err)
		os.Exit(1)
	}
}

func infoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <artifact>",
		Short: "Print the header and member summary of an artifact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cf, err := load(args[0])
			if err != nil {
				return err
			}

			name, err := cf.ClassName()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "class:     %s\n", name)
			fmt.Fprintf(out, "version:   %d.%d\n", cf.MajorVersion, cf.MinorVersion)
			fmt.Fprintf(out, "extends:   %s\n", cf.SuperClassName())
			if ifaces, err := cf.InterfaceNames(); err == nil && len(ifaces) > 0 {
				fmt.Fprintf(out, "implements: %s\n", strings.Join(ifaces, ", "))
			}
			if cf.Generator != "" {
				fmt.Fprintf(out, "generator: %s\n", cf.Generator)
			}
			if cf.Source != "" {
				fmt.Fprintf(out, "source:    %s\n", cf.Source)
			}

			for _, f := range cf.Fields {
				fmt.Fprintf(out, "field:     %s %s\n", f.Name, f.Descriptor)
			}
			for _, m := range cf.Methods {
				if m.Code != nil {
					fmt.Fprintf(out, "method:    %s%s  stack=%d locals=%d size=%d\n",
						m.Name, m.Descriptor, m.Code.MaxStack, m.Code.MaxLocals, len(m.Code.Code))
				} else {
					fmt.Fprintf(out, "method:    %s%s\n", m.Name, m.Descriptor)
				}
			}
			return nil
		},
	}
}

func disasmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disasm <artifact>",
		Short: "Disassemble every method body of an artifact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cf, err := load(args[0])
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), emit.Disassemble(cf))
			return nil
		},
	}
}

func load(path string) (*classfile.ClassFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return classfile.ParseBytes(data)
}
