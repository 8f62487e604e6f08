package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func newPropertiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "properties",
		Aliases: []string{"props"},
		Short:   "List the scorable properties",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withBackend(cmd, func(ctx context.Context, b Backend) error {
				cat, err := b.Properties(ctx)
				if err != nil {
					return err
				}
				return PrintResult(cmd, propertiesView{cat})
			})
		},
	}
}

type propertiesView struct{ *Catalogue }

func (v propertiesView) String() string {
	var sb strings.Builder
	for i, p := range v.Properties {
		if i > 0 {
			sb.WriteString("\n")
		}
		marker := " "
		if p.Name == v.Default {
			marker = "*"
		}
		fmt.Fprintf(&sb, "%s %-14s %s", marker, p.Name, p.Description)
	}
	return sb.String()
}

func (v propertiesView) TableHeaders() []string {
	return []string{"NAME", "FAMILY", "RAW", "DEFAULT", "DESCRIPTION"}
}

func (v propertiesView) TableRows() [][]string {
	rows := make([][]string, 0, len(v.Properties))
	for _, p := range v.Properties {
		rows = append(rows, []string{p.Name, p.Family, strconv.FormatBool(p.Raw), strconv.FormatBool(p.Name == v.Default), p.Description})
	}
	return rows
}

//Personal.AI order the ending
