package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	"github.com/mattn/go-sqlite3"

	"github.com/jask/moneyvault/internal/vault"
)

// Unlock opens the account for use. A plain account accepts only the empty
// password. A wrong password reports false with a nil error.
func (h *Handle) Unlock(ctx context.Context, password string) (bool, error) {
	if h.closed {
		return false, ErrClosed
	}
	if !h.encrypted {
		if password != "" {
			return false, nil
		}
		if !h.unlocked {
			if err := h.prepare(ctx); err != nil {
				return false, err
			}
		}
		return true, nil
	}
	raw, err := os.ReadFile(h.path)
	if err != nil {
		return false, fmt.Errorf("read %s: %w", h.path, err)
	}
	image, sealer, err := vault.Unseal(raw, password)
	if errors.Is(err, vault.ErrWrongPassword) {
		h.log.Debug("unlock rejected", "path", h.path)
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if h.unlocked {
		return true, nil
	}
	db, err := openMemory()
	if err != nil {
		return false, err
	}
	if err := loadImage(ctx, db, image); err != nil {
		_ = db.Close()
		return false, fmt.Errorf("load account image: %w", err)
	}
	h.db = db
	h.sealer = sealer
	if err := h.prepare(ctx); err != nil {
		h.db, h.sealer = nil, nil
		_ = db.Close()
		return false, err
	}
	return true, nil
}

func (h *Handle) prepare(ctx context.Context) error {
	changed, err := Migrate(ctx, h.db)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	h.unlocked = true
	h.log.Debug("account unlocked", "path", h.path, "encrypted", h.encrypted, "migrated", changed)
	if changed {
		return h.flush(ctx)
	}
	return nil
}

// flush seals the in-memory image back to disk. Plain files need nothing.
func (h *Handle) flush(ctx context.Context) error {
	if !h.encrypted || h.sealer == nil {
		return nil
	}
	image, err := serialize(ctx, h.db)
	if err != nil {
		return fmt.Errorf("serialize account: %w", err)
	}
	sealed, err := h.sealer.Seal(image)
	if err != nil {
		return fmt.Errorf("seal account: %w", err)
	}
	if err := vault.WriteFile(h.path, sealed); err != nil {
		return fmt.Errorf("write %s: %w", h.path, err)
	}
	return nil
}

// ChangePassword re-keys the account. An empty password removes encryption;
// a non-empty one on a plain account adds it. Rows are preserved either way.
func (h *Handle) ChangePassword(ctx context.Context, password string) error {
	if err := h.ready(); err != nil {
		return err
	}
	if h.tx != nil {
		return ErrTransactionInProgress
	}
	switch {
	case !h.encrypted && password == "":
		return nil
	case !h.encrypted:
		return h.encrypt(ctx, password)
	case password == "":
		return h.decrypt(ctx)
	}
	sealer, err := vault.NewSealer(password, h.kdf)
	if err != nil {
		return err
	}
	prev := h.sealer
	h.sealer = sealer
	if err := h.flush(ctx); err != nil {
		h.sealer = prev
		return err
	}
	h.log.Info("account password changed", "path", h.path)
	return nil
}

func (h *Handle) encrypt(ctx context.Context, password string) error {
	image, err := serialize(ctx, h.db)
	if err != nil {
		return fmt.Errorf("serialize account: %w", err)
	}
	sealer, err := vault.NewSealer(password, h.kdf)
	if err != nil {
		return err
	}
	sealed, err := sealer.Seal(image)
	if err != nil {
		return fmt.Errorf("seal account: %w", err)
	}
	mem, err := openMemory()
	if err != nil {
		return err
	}
	if err := loadImage(ctx, mem, image); err != nil {
		_ = mem.Close()
		return fmt.Errorf("load account image: %w", err)
	}
	if err := h.db.Close(); err != nil {
		_ = mem.Close()
		return err
	}
	if err := vault.WriteFile(h.path, sealed); err != nil {
		_ = mem.Close()
		db, reopenErr := openFile(h.path)
		if reopenErr != nil {
			h.unlocked = false
			return errors.Join(err, reopenErr)
		}
		h.db = db
		return fmt.Errorf("write %s: %w", h.path, err)
	}
	h.db, h.sealer, h.encrypted = mem, sealer, true
	h.log.Info("account encrypted", "path", h.path)
	return nil
}

func (h *Handle) decrypt(ctx context.Context) error {
	image, err := serialize(ctx, h.db)
	if err != nil {
		return fmt.Errorf("serialize account: %w", err)
	}
	if err := vault.WriteFile(h.path, image); err != nil {
		return fmt.Errorf("write %s: %w", h.path, err)
	}
	db, err := openFile(h.path)
	if err != nil {
		return err
	}
	_ = h.db.Close()
	h.db, h.sealer, h.encrypted = db, nil, false
	h.log.Info("account encryption removed", "path", h.path)
	return nil
}

// serialize copies the main schema of db into a byte image.
func serialize(ctx context.Context, db *sql.DB) ([]byte, error) {
	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	var image []byte
	err = conn.Raw(func(dc any) error {
		c, ok := dc.(*sqlite3.SQLiteConn)
		if !ok {
			return fmt.Errorf("unexpected driver connection %T", dc)
		}
		image, err = c.Serialize("main")
		return err
	})
	return image, err
}

// loadImage copies image into db. The image is first deserialized into a
// scratch connection because deserialized databases cannot grow; the backup
// API then copies it into db, which can.
func loadImage(ctx context.Context, db *sql.DB, image []byte) error {
	scratch, err := openMemory()
	if err != nil {
		return err
	}
	defer scratch.Close()

	src, err := scratch.Conn(ctx)
	if err != nil {
		return err
	}
	defer src.Close()
	dst, err := db.Conn(ctx)
	if err != nil {
		return err
	}
	defer dst.Close()

	return dst.Raw(func(dc any) error {
		to, ok := dc.(*sqlite3.SQLiteConn)
		if !ok {
			return fmt.Errorf("unexpected driver connection %T", dc)
		}
		return src.Raw(func(sc any) error {
			from, ok := sc.(*sqlite3.SQLiteConn)
			if !ok {
				return fmt.Errorf("unexpected driver connection %T", sc)
			}
			if err := from.Deserialize(image, "main"); err != nil {
				return err
			}
			backup, err := to.Backup("main", from, "main")
			if err != nil {
				return err
			}
			for {
				done, err := backup.Step(-1)
				if err != nil {
					_ = backup.Finish()
					return err
				}
				if done {
					break
				}
			}
			return backup.Finish()
		})
	})
}
