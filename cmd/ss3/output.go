package main

import (
	"encoding/json"
	"fmt"
	"io"
	"path"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"
	"go.yaml.in/yaml/v3"

	"example.com/ss3/pkg/errs"
	"example.com/ss3/pkg/keys"
	"example.com/ss3/pkg/transfer"
)

const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

type extStat struct {
	Ext   string `json:"ext" yaml:"ext"`
	Size  int64  `json:"size" yaml:"size"`
	Count int    `json:"count" yaml:"count"`
}

// listInfo accumulates the totals printed by ls --info.
type listInfo struct {
	TotalSize  int64     `json:"total_size" yaml:"total_size"`
	TotalCount int       `json:"total_count" yaml:"total_count"`
	Extensions []extStat `json:"extensions" yaml:"extensions"`

	byExt map[string]*extStat
}

func newListInfo() *listInfo {
	return &listInfo{byExt: make(map[string]*extStat)}
}

func (li *listInfo) add(item transfer.StoreItem) {
	li.TotalCount++
	li.TotalSize += item.Size
	ext := path.Ext(item.Key)
	if ext == "" {
		return
	}
	st, ok := li.byExt[ext]
	if !ok {
		st = &extStat{Ext: ext}
		li.byExt[ext] = st
	}
	st.Size += item.Size
	st.Count++
}

// finish sorts the per-extension stats by extension.
func (li *listInfo) finish() {
	li.Extensions = li.Extensions[:0]
	for _, st := range li.byExt {
		li.Extensions = append(li.Extensions, *st)
	}
	sort.Slice(li.Extensions, func(i, j int) bool { return li.Extensions[i].Ext < li.Extensions[j].Ext })
}

func (li *listInfo) writeText(w io.Writer) {
	fmt.Fprintln(w, "\n--- Info:")
	for _, st := range li.Extensions {
		fmt.Fprintf(w, "%-5s - size: %-8s count: %d\n", st.Ext, humanize.Bytes(uint64(st.Size)), st.Count)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "total size: %-8s total count: %d\n", humanize.Bytes(uint64(li.TotalSize)), li.TotalCount)
}

type lsReport struct {
	Prefixes []transfer.StoreItem `json:"prefixes" yaml:"prefixes"`
	Objects  []transfer.StoreItem `json:"objects" yaml:"objects"`
	Info     *listInfo            `json:"info,omitempty" yaml:"info,omitempty"`
}

func writeStructured(w io.Writer, format string, v any) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	return errs.Newf(errs.KindConfiguration, "unknown output format '%s' (text, json or yaml)", format)
}

func (a *app) lsCommand() *cli.Command {
	flags := append(a.storeFlags(), filterFlags()...)
	flags = append(flags,
		&cli.BoolFlag{Name: "info", Usage: "print totals and size per extension after the listing"},
		&cli.BoolFlag{Name: "info-only", Usage: "print only the totals and size per extension"},
		&cli.StringFlag{Name: "format", Usage: "output format: text, json or yaml", Value: formatText},
	)
	return &cli.Command{
		Name:      "ls",
		Usage:     "List buckets (ls s3://) or the prefixes and objects under a S3 url",
		ArgsUsage: "s3://bucket[/prefix]",
		Flags:     flags,
		Action:    a.ls,
	}
}

func (a *app) ls(c *cli.Context) error {
	arg := c.Args().Get(0)
	format := c.String("format")
	if format != formatText && format != formatJSON && format != formatYAML {
		return errs.Newf(errs.KindConfiguration, "unknown output format '%s' (text, json or yaml)", format)
	}
	if arg == "s3://" {
		return a.lsBuckets(c, format)
	}
	if !keys.IsS3URL(arg) {
		return errs.New(errs.KindConfiguration, "The 'ls' command requires a S3 url.")
	}
	u, err := keys.ParseURL(arg)
	if err != nil {
		return err
	}
	if c.Bool("info") && c.Bool("info-only") {
		return errs.New(errs.KindConfiguration, "Cannot have '--info' and '--info-only' at the same time")
	}
	includes, excludes, err := globsFromFlags(c)
	if err != nil {
		return err
	}

	store, _, err := a.open(c.Context, c, u.Bucket)
	if err != nil {
		return err
	}
	b := a.bucket(store)
	opts := transfer.ListOptions{
		Recursive: c.Bool("recursive"),
		Includes:  includes,
		Excludes:  excludes,
	}

	var info *listInfo
	if c.Bool("info") || c.Bool("info-only") {
		info = newListInfo()
	}
	showList := !c.Bool("info-only")
	text := format == formatText

	var report lsReport
	err = b.ListPages(c.Context, u.Key, opts, func(page transfer.ListResult) error {
		for _, p := range page.Prefixes {
			if text {
				fmt.Fprintln(a.stdout, p.Key)
			} else {
				report.Prefixes = append(report.Prefixes, p)
			}
		}
		for _, o := range page.Objects {
			if info != nil {
				info.add(o)
			}
			if !showList {
				continue
			}
			if text {
				fmt.Fprintln(a.stdout, o.Key)
			} else {
				report.Objects = append(report.Objects, o)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if info != nil {
		info.finish()
	}
	if !text {
		report.Info = info
		return writeStructured(a.stdout, format, report)
	}
	if info != nil {
		info.writeText(a.stdout)
	}
	return nil
}

func (a *app) lsBuckets(c *cli.Context, format string) error {
	_, buckets, err := a.open(c.Context, c, "")
	if err != nil {
		return err
	}
	names, err := buckets.ListBuckets(c.Context)
	if err != nil {
		return err
	}
	if format != formatText {
		return writeStructured(a.stdout, format, map[string][]string{"buckets": names})
	}
	for _, n := range names {
		fmt.Fprintln(a.stdout, n)
	}
	return nil
}
