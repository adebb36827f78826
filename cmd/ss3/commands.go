package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"example.com/ss3/pkg/errs"
	"example.com/ss3/pkg/filter"
	"example.com/ss3/pkg/keys"
	"example.com/ss3/pkg/transfer"
)

func (a *app) storeFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "profile", Aliases: []string{"p"}, Usage: "profile to use when no bucket environment credentials are set", Value: a.cfg.Profile},
		&cli.StringFlag{Name: "region", Usage: "region for this command (overrides profile/env region)", Value: a.cfg.Region},
		&cli.StringFlag{Name: "backend", Usage: "store client: s3 or minio", Value: a.cfg.Backend},
	}
}

func filterFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringSliceFlag{Name: "include", Aliases: []string{"i"}, Usage: "only process items matching the glob (repeatable)"},
		&cli.StringSliceFlag{Name: "exclude", Aliases: []string{"e"}, Usage: "skip items matching the glob (repeatable)"},
		&cli.BoolFlag{Name: "recursive", Aliases: []string{"r"}, Usage: "process all keys or files recursively"},
	}
}

func globsFromFlags(c *cli.Context) (*filter.Globs, *filter.Globs, error) {
	includes, err := filter.NewGlobs(c.StringSlice("include"))
	if err != nil {
		return nil, nil, err
	}
	excludes, err := filter.NewGlobs(c.StringSlice("exclude"))
	if err != nil {
		return nil, nil, err
	}
	return includes, excludes, nil
}

func argURL(c *cli.Context, n int) (keys.URL, error) {
	arg := c.Args().Get(n)
	if arg == "" {
		return keys.URL{}, errs.New(errs.KindConfiguration, "This command requires a S3 url")
	}
	return keys.ParseURL(arg)
}

func (a *app) cpCommand() *cli.Command {
	flags := append(a.storeFlags(), filterFlags()...)
	flags = append(flags,
		&cli.StringFlag{Name: "over", Usage: "overwrite mode: skip, write, etag or fail", Value: "skip"},
		&cli.BoolFlag{Name: "show-skip", Usage: "show the skipped entries"},
		&cli.StringFlag{Name: "noext-ct", Usage: "content type for files without extension ('html', 'text' or a mime type)"},
		&cli.IntFlag{Name: "concurrency", Usage: "files transferred at once", Value: a.cfg.Concurrency},
	)
	return &cli.Command{
		Name:      "cp",
		Usage:     "Copy from s3 url / file path to s3 url / file path",
		ArgsUsage: "<src> <dst>",
		Flags:     flags,
		Action:    a.cp,
	}
}

func (a *app) cp(c *cli.Context) error {
	if c.NArg() < 2 {
		return errs.New(errs.KindConfiguration, "This command requires a source and a destination")
	}
	src, err := keys.ParseLocation(c.Args().Get(0))
	if err != nil {
		return err
	}
	dst, err := keys.ParseLocation(c.Args().Get(1))
	if err != nil {
		return err
	}
	opts, err := copyOptions(c)
	if err != nil {
		return err
	}

	var sum transfer.Summary
	switch {
	case src.IsRemote() && !dst.IsRemote():
		store, _, err := a.open(c.Context, c, src.S3.Bucket)
		if err != nil {
			return err
		}
		sum, err = a.bucket(store).DownloadPath(c.Context, src.S3.Key, dst.Local, opts)
		if err != nil {
			return err
		}
	case !src.IsRemote() && dst.IsRemote():
		if _, err := a.fs.Stat(src.Local); err != nil {
			return errs.FilePathNotFound(src.Local)
		}
		store, _, err := a.open(c.Context, c, dst.S3.Bucket)
		if err != nil {
			return err
		}
		sum, err = a.bucket(store).UploadPath(c.Context, src.Local, dst.S3.Key, opts)
		if err != nil {
			return err
		}
	default:
		return errs.NotSupported(fmt.Sprintf("cp from %s to %s", src, dst))
	}
	a.log.Info().
		Int("uploaded", sum.Uploaded).
		Int("downloaded", sum.Downloaded).
		Int("skipped", sum.Skipped).
		Int("excluded", sum.Excluded).
		Int64("bytes", sum.Bytes).
		Msg("copy done")
	return nil
}

func copyOptions(c *cli.Context) (transfer.CopyOptions, error) {
	includes, excludes, err := globsFromFlags(c)
	if err != nil {
		return transfer.CopyOptions{}, err
	}
	over, err := transfer.ParseOverwriteMode(c.String("over"))
	if err != nil {
		return transfer.CopyOptions{}, err
	}
	return transfer.CopyOptions{
		Recursive:        c.Bool("recursive"),
		Includes:         includes,
		Excludes:         excludes,
		Overwrite:        over,
		ShowSkipped:      c.Bool("show-skip"),
		NoExtContentType: transfer.ContentTypeAlias(c.String("noext-ct")),
		Concurrency:      c.Int("concurrency"),
	}, nil
}

func (a *app) rmCommand() *cli.Command {
	return &cli.Command{
		Name:      "rm",
		Usage:     "Delete a S3 object by its URL",
		ArgsUsage: "s3://bucket/key",
		Flags:     a.storeFlags(),
		Action: func(c *cli.Context) error {
			u, err := argURL(c, 0)
			if err != nil {
				return err
			}
			if u.Key == "" {
				return errs.InvalidPath(u.String())
			}
			store, _, err := a.open(c.Context, c, u.Bucket)
			if err != nil {
				return err
			}
			return a.bucket(store).Delete(c.Context, u.Key)
		},
	}
}

func (a *app) mbCommand() *cli.Command {
	return &cli.Command{
		Name:      "mb",
		Usage:     "Create a bucket, e.g. `ss3 mb s3://my-bucket`",
		ArgsUsage: "s3://bucket",
		Flags:     a.storeFlags(),
		Action: func(c *cli.Context) error {
			u, err := argURL(c, 0)
			if err != nil {
				return err
			}
			_, buckets, err := a.open(c.Context, c, u.Bucket)
			if err != nil {
				return err
			}
			location, err := buckets.CreateBucket(c.Context, u.Bucket)
			if err != nil {
				return err
			}
			if location != "" {
				fmt.Fprintf(a.stdout, "Bucket Created: %s\n", location)
			}
			return nil
		},
	}
}

func (a *app) rbCommand() *cli.Command {
	return &cli.Command{
		Name:      "rb",
		Usage:     "Delete a bucket, e.g. `ss3 rb s3://my-bucket`",
		ArgsUsage: "s3://bucket",
		Flags:     a.storeFlags(),
		Action: func(c *cli.Context) error {
			u, err := argURL(c, 0)
			if err != nil {
				return err
			}
			_, buckets, err := a.open(c.Context, c, u.Bucket)
			if err != nil {
				return err
			}
			if err := buckets.DeleteBucket(c.Context, u.Bucket); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Bucket Deleted: %s\n", u.Bucket)
			return nil
		},
	}
}

func (a *app) cleanCommand() *cli.Command {
	flags := append(a.storeFlags(), &cli.BoolFlag{Name: "force", Usage: "delete without the confirmation prompt"})
	return &cli.Command{
		Name:      "clean",
		Usage:     "Remove the objects under a prefix that have no matching local file",
		ArgsUsage: "<local_dir> s3://bucket/prefix",
		Flags:     flags,
		Action:    a.clean,
	}
}

func (a *app) clean(c *cli.Context) error {
	localDir := c.Args().Get(0)
	if localDir == "" {
		return errs.New(errs.KindConfiguration, "This command requires a local directory and a S3 url")
	}
	u, err := argURL(c, 1)
	if err != nil {
		return err
	}
	store, _, err := a.open(c.Context, c, u.Bucket)
	if err != nil {
		return err
	}
	b := a.bucket(store)
	stale, err := b.PlanClean(c.Context, localDir, u.Key)
	if err != nil {
		return err
	}
	if len(stale) == 0 {
		fmt.Fprintln(a.stdout, "Nothing to clean")
		return nil
	}
	for _, key := range stale {
		fmt.Fprintf(a.stdout, "%-20s %s\n", "To delete", b.URL(key))
	}
	if !c.Bool("force") {
		ok, err := confirm(a.stdin, a.stdout, fmt.Sprintf("Delete these %d objects? (y/N): ", len(stale)))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(a.stdout, "Clean cancelled")
			return nil
		}
	}
	return b.Delete(c.Context, stale...)
}
