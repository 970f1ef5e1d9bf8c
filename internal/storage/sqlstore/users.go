package sqlstore

import (
	"context"

	"github.com/julianstephens/routinely/internal/models"
)

const userColumns = "id, name, token_hash, timezone, created_at"

func scanUser(row interface{ Scan(...interface{}) error }) (models.User, error) {
	var u models.User
	var createdAt string
	if err := row.Scan(&u.ID, &u.Name, &u.TokenHash, &u.Timezone, &createdAt); err != nil {
		return models.User{}, err
	}
	t, err := parseTimestamp(createdAt)
	if err != nil {
		return models.User{}, err
	}
	u.CreatedAt = t
	return u, nil
}

func (q *Queries) AddUser(ctx context.Context, u models.User) error {
	_, err := q.exec(ctx, q.db,
		"INSERT INTO users ("+userColumns+") VALUES (?, ?, ?, ?, ?)",
		u.ID, u.Name, u.TokenHash, u.Timezone, formatTimestamp(u.CreatedAt))
	if err != nil {
		return q.wrapWrite("add user", err)
	}
	return nil
}

func (q *Queries) getUserBy(ctx context.Context, column, value string) (models.User, error) {
	row := q.queryRow(ctx, q.db, "SELECT "+userColumns+" FROM users WHERE "+column+" = ?", value)
	u, err := scanUser(row)
	if err != nil {
		return models.User{}, notFound(err, "get user")
	}
	return u, nil
}

func (q *Queries) GetUser(ctx context.Context, id string) (models.User, error) {
	return q.getUserBy(ctx, "id", id)
}

func (q *Queries) GetUserByName(ctx context.Context, name string) (models.User, error) {
	return q.getUserBy(ctx, "name", name)
}

func (q *Queries) GetUserByTokenHash(ctx context.Context, hash string) (models.User, error) {
	return q.getUserBy(ctx, "token_hash", hash)
}

func (q *Queries) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := q.query(ctx, q.db, "SELECT "+userColumns+" FROM users ORDER BY created_at")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (q *Queries) UpdateUser(ctx context.Context, u models.User) error {
	res, err := q.exec(ctx, q.db,
		"UPDATE users SET name = ?, token_hash = ?, timezone = ? WHERE id = ?",
		u.Name, u.TokenHash, u.Timezone, u.ID)
	if err != nil {
		return q.wrapWrite("update user", err)
	}
	return requireAffected(res, "update user")
}
