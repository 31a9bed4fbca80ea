package cli

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"
)

var errUsage = errors.New("wrong arguments")

func usage(u string) error {
	return fmt.Errorf("%w, usage: %s", errUsage, u)
}

func (a *App) Me(ctx context.Context) error {
	u, err := a.api.Me(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s\t%s\t%s\n", u.ID, u.Login, u.Role)
	return nil
}

func (a *App) Sessions(ctx context.Context) error {
	list, err := a.api.Sessions(ctx)
	if err != nil {
		return err
	}
	for _, s := range list {
		fmt.Fprintf(a.out, "since %s\texpires %s\n", s.CreatedAt.Format(time.RFC3339), s.ExpiresAt.Format(time.RFC3339))
	}
	return nil
}

func (a *App) Users(ctx context.Context) error {
	list, err := a.api.Users(ctx)
	if err != nil {
		return err
	}
	for _, u := range list {
		fmt.Fprintf(a.out, "%s\t%s\t%s\n", u.ID, u.Login, u.Role)
	}
	return nil
}

func (a *App) Projects(ctx context.Context) error {
	list, err := a.api.Projects(ctx)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(a.out, "No projects")
	}
	for _, p := range list {
		fmt.Fprintf(a.out, "%s\t%s\t%d tasks\n", p.ID, p.Name, p.TasksCount)
	}
	return nil
}

func (a *App) Project(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("project <projectID>")
	}
	p, err := a.api.Project(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s\t%s\n", p.ID, p.Name)
	if p.Description != "" {
		fmt.Fprintln(a.out, p.Description)
	}
	fmt.Fprintf(a.out, "members: %s\n", strings.Join(p.Members, ", "))
	for _, t := range p.Tasks {
		fmt.Fprintf(a.out, "  %s\t[%s]\t%s\n", t.ID, t.Status, t.Title)
		for _, f := range t.Attachments {
			fmt.Fprintf(a.out, "    %s\t%s\t%d bytes\n", f.ID, f.OriginalName, f.Size)
		}
	}
	return nil
}

func (a *App) SetRole(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return usage("set-role <userID> <admin|member>")
	}
	u, err := a.api.SetRole(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s is now %s\n", u.Login, u.Role)
	return nil
}

func (a *App) LogoutAll(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("logout-all <userID>")
	}
	if err := a.api.LogoutEverywhere(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "All sessions revoked")
	return nil
}

func (a *App) Attach(ctx context.Context, args []string) error {
	if len(args) != 3 {
		return usage("attach <projectID> <taskID> <path>")
	}
	content, err := os.ReadFile(args[2])
	if err != nil {
		return err
	}
	name := filepath.Base(args[2])
	f, err := a.api.Attach(ctx, args[0], args[1], name, mime.TypeByExtension(filepath.Ext(name)), content)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Uploaded %s (%d bytes) as %s\n", f.OriginalName, f.Size, f.ID)
	return nil
}

func (a *App) Download(ctx context.Context, args []string) error {
	if len(args) < 3 || len(args) > 4 {
		return usage("download <projectID> <taskID> <fileID> [dest]")
	}
	f, data, err := a.api.Download(ctx, args[0], args[1], args[2])
	if err != nil {
		return err
	}
	dest := filepath.Base(f.OriginalName)
	if len(args) == 4 {
		dest = args[3]
	}
	if err := os.WriteFile(dest, data, 0o600); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Saved %d bytes to %s\n", len(data), dest)
	return nil
}
