package users

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

type Repo struct{ DB *pgxpool.Pool }

const userColumns = `id, user_id, username, email,
	COALESCE(first_name,''), COALESCE(last_name,''), COALESCE(phone,''),
	COALESCE(gender,''), COALESCE(dob,''), COALESCE(profile_pic,''),
	COALESCE(addresses,'[]'), is_admin, is_active, created_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	var addrs []byte
	err := row.Scan(&u.ID, &u.UserID, &u.Username, &u.Email,
		&u.FirstName, &u.LastName, &u.Phone, &u.Gender, &u.DOB, &u.ProfilePic,
		&addrs, &u.IsAdmin, &u.IsActive, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(addrs, &u.Addresses); err != nil {
		return nil, fmt.Errorf("decode addresses: %w", err)
	}
	return &u, nil
}

// Register creates a customer account with a bcrypt-hashed password and a
// sequential USR display id.
func (r *Repo) Register(ctx context.Context, username, email, password string) (*User, error) {
	if taken, err := r.exists(ctx, `email`, email); err != nil {
		return nil, err
	} else if taken {
		return nil, ErrEmailTaken
	}
	if taken, err := r.exists(ctx, `username`, username); err != nil {
		return nil, err
	} else if taken {
		return nil, ErrUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	var seq int
	if err := r.DB.QueryRow(ctx, `SELECT nextval('user_display_seq')`).Scan(&seq); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	_, err = r.DB.Exec(ctx, `
		INSERT INTO users(id, user_id, username, email, password_hash, is_admin, is_active, addresses, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,false,true,'[]',$6,$6)`,
		id, fmt.Sprintf("USR-%06d", seq), username, email, string(hash), time.Now().UTC())
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// Authenticate checks credentials and returns the user on success.
func (r *Repo) Authenticate(ctx context.Context, username, password string) (*User, error) {
	var id, hash string
	err := r.DB.QueryRow(ctx, `SELECT id, password_hash FROM users WHERE username=$1`, username).Scan(&id, &hash)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrBadCredential
	} else if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return nil, ErrBadCredential
	}
	u, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !u.IsActive {
		return nil, ErrInactive
	}
	return u, nil
}

// ResetPassword requires username and email to match the same account.
func (r *Repo) ResetPassword(ctx context.Context, username, email, newPassword string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	ct, err := r.DB.Exec(ctx, `
		UPDATE users SET password_hash=$3, updated_at=now() WHERE username=$1 AND email=$2`,
		username, email, string(hash))
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id string) (*User, error) {
	return scanUser(r.DB.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id))
}

// Lookup resolves a user by internal id, display id or username, matching the
// loose identifiers the storefront sends.
func (r *Repo) Lookup(ctx context.Context, ident string) (*User, error) {
	return scanUser(r.DB.QueryRow(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE id=$1 OR user_id=$1 OR username=$1`, ident))
}

func (r *Repo) EmailAvailable(ctx context.Context, email string) (bool, error) {
	taken, err := r.exists(ctx, `email`, email)
	return !taken, err
}

func (r *Repo) UsernameAvailable(ctx context.Context, username string) (bool, error) {
	taken, err := r.exists(ctx, `username`, username)
	return !taken, err
}

// UpdateProfile patches only the provided fields.
func (r *Repo) UpdateProfile(ctx context.Context, id string, upd ProfileUpdate) (*User, error) {
	set := `updated_at = now()`
	args := []any{id}
	add := func(col string, v any) {
		args = append(args, v)
		set += fmt.Sprintf(`, %s = $%d`, col, len(args))
	}
	if upd.FirstName != nil {
		add("first_name", *upd.FirstName)
	}
	if upd.LastName != nil {
		add("last_name", *upd.LastName)
	}
	if upd.Phone != nil {
		add("phone", *upd.Phone)
	}
	if upd.Gender != nil {
		add("gender", *upd.Gender)
	}
	if upd.DOB != nil {
		add("dob", *upd.DOB)
	}
	if upd.ProfilePic != nil {
		add("profile_pic", *upd.ProfilePic)
	}
	if upd.Addresses != nil {
		b, err := json.Marshal(*upd.Addresses)
		if err != nil {
			return nil, err
		}
		add("addresses", b)
	}

	ct, err := r.DB.Exec(ctx, `UPDATE users SET `+set+` WHERE id=$1`, args...)
	if err != nil {
		return nil, err
	}
	if ct.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return r.GetByID(ctx, id)
}

// ListAll returns every account for the admin panel, admins first then
// customers by display id.
func (r *Repo) ListAll(ctx context.Context) ([]User, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT `+userColumns+` FROM users ORDER BY is_admin DESC, user_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

// SetActive toggles the account; deactivation also invalidates future logins.
func (r *Repo) SetActive(ctx context.Context, id string, active bool) error {
	ct, err := r.DB.Exec(ctx, `UPDATE users SET is_active=$2, updated_at=now() WHERE id=$1`, id, active)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete refuses admins and users with order history.
func (r *Repo) Delete(ctx context.Context, id string) error {
	u, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if u.IsAdmin {
		return ErrIsAdmin
	}
	var n int
	if err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM orders WHERE user_id=$1`, id).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return ErrHasOrders
	}
	_, err = r.DB.Exec(ctx, `DELETE FROM users WHERE id=$1`, id)
	return err
}

func (r *Repo) exists(ctx context.Context, col, val string) (bool, error) {
	var n int
	err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE `+col+`=$1`, val).Scan(&n)
	return n > 0, err
}
