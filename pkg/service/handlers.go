package service

import (
	"context"
	"path/filepath"

	"github.com/mattsolo1/grove-campus/pkg/cache"
	"github.com/mattsolo1/grove-campus/pkg/calendar"
	"github.com/mattsolo1/grove-campus/pkg/ipc"
	"github.com/mattsolo1/grove-campus/pkg/models"
	"github.com/mattsolo1/grove-campus/pkg/search"
	"github.com/mattsolo1/grove-campus/pkg/sync"
)

// RegisterHandlers exposes the service operations on d.
func (s *Service) RegisterHandlers(d *ipc.Dispatcher) {
	d.Handle("login", func(ctx context.Context, args ipc.Args, _ func(any)) (any, error) {
		username, err := args.StringAt(0)
		if err != nil {
			return nil, err
		}
		password, err := args.StringAt(1)
		if err != nil {
			return nil, err
		}
		host, _ := args.StringAt(2)
		return s.Login(ctx, host, username, password, false)
	})

	d.Handle("login_with_token", func(ctx context.Context, args ipc.Args, _ func(any)) (any, error) {
		token, err := args.StringAt(0)
		if err != nil {
			return nil, err
		}
		host, _ := args.StringAt(1)
		return s.LoginWithToken(ctx, host, token), nil
	})

	d.Handle("get_courses", func(ctx context.Context, _ ipc.Args, emit func(any)) (any, error) {
		return stream(s.Courses(ctx), emit)
	})

	d.Handle("set_semester", func(ctx context.Context, args ipc.Args, _ func(any)) (any, error) {
		id, err := args.StringAt(0)
		if err != nil {
			return nil, err
		}
		return s.SetSemester(ctx, id)
	})

	d.Handle("get_course", func(ctx context.Context, args ipc.Args, emit func(any)) (any, error) {
		id, err := args.StringAt(0)
		if err != nil {
			return nil, err
		}
		return stream(s.Course(ctx, id), emit)
	})

	d.Handle("get_course_files", func(ctx context.Context, args ipc.Args, emit func(any)) (any, error) {
		id, err := args.StringAt(0)
		if err != nil {
			return nil, err
		}
		return stream(s.CourseFiles(ctx, id), emit)
	})

	d.Handle("download_file", func(ctx context.Context, args ipc.Args, _ func(any)) (any, error) {
		name, err := args.StringAt(0)
		if err != nil {
			return nil, err
		}
		url, err := args.StringAt(1)
		if err != nil {
			return nil, err
		}
		dir, _ := args.StringAt(2)
		return s.DownloadFile(ctx, name, url, dir)
	})

	d.Handle("sync_folder", func(ctx context.Context, args ipc.Args, _ func(any)) (any, error) {
		var contents models.FolderContents
		if err := args.Decode(0, &contents); err != nil {
			return nil, err
		}
		path, err := args.StringAt(1)
		if err != nil {
			return nil, err
		}
		return s.SyncFolder(ctx, contents, path)
	})

	d.Handle("sync_course", func(ctx context.Context, args ipc.Args, _ func(any)) (any, error) {
		id, err := args.StringAt(0)
		if err != nil {
			return nil, err
		}
		path, _ := args.StringAt(1)
		return s.SyncCourse(ctx, id, path)
	})

	d.Handle("select_sync_folder", func(ctx context.Context, args ipc.Args, _ func(any)) (any, error) {
		name, err := args.StringAt(0)
		if err != nil {
			return nil, err
		}
		return filepath.Join(s.syncRoot(), sync.SafeName(name)), nil
	})

	d.Handle("encrypt_password", func(_ context.Context, args ipc.Args, _ func(any)) (any, error) {
		password, err := args.StringAt(0)
		if err != nil {
			return nil, err
		}
		return true, s.Vault.Encrypt(password)
	})

	d.Handle("decrypt_password", func(context.Context, ipc.Args, func(any)) (any, error) {
		if password, ok := s.Vault.Decrypt(); ok {
			return password, nil
		}
		return false, nil
	})

	d.Handle("search", func(_ context.Context, args ipc.Args, _ func(any)) (any, error) {
		query, err := args.StringAt(0)
		if err != nil {
			return nil, err
		}
		opts := &search.Options{}
		if len(args) > 1 {
			if err := args.Decode(1, opts); err != nil {
				return nil, err
			}
		}
		return s.Search(query, opts)
	})

	d.Handle("export_calendar", func(ctx context.Context, args ipc.Args, _ func(any)) (any, error) {
		var ids []string
		if len(args) > 0 {
			if err := args.Decode(0, &ids); err != nil {
				return nil, err
			}
		}
		return s.Calendar(ctx, ids, calendar.Options{})
	})

	d.Handle("get_messages", func(ctx context.Context, _ ipc.Args, emit func(any)) (any, error) {
		return stream(s.Messages(ctx), emit)
	})

	d.Handle("get_message_details", func(ctx context.Context, args ipc.Args, emit func(any)) (any, error) {
		id, err := args.StringAt(0)
		if err != nil {
			return nil, err
		}
		return stream(s.MessageDetails(ctx, id), emit)
	})
}

// stream forwards the stale value through emit and returns the fresh one.
func stream[T any](updates <-chan cache.Update[T], emit func(any)) (any, error) {
	var err error
	for u := range updates {
		switch {
		case u.Err != nil:
			err = u.Err
		case u.Stale:
			emit(u.Value)
		default:
			return u.Value, nil
		}
	}
	return nil, err
}
