// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Threadboard Contributors

//go:build integration

package postgres_test

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/threadboard/threadboard/internal/auth"
	"github.com/threadboard/threadboard/internal/auth/postgres"
	"github.com/threadboard/threadboard/internal/store"
)

var _ = Describe("UserRepository", Ordered, func() {
	var (
		ctx       context.Context
		container *tcpostgres.PostgresContainer
		pool      *pgxpool.Pool
		repo      *postgres.UserRepository
	)

	BeforeAll(func() {
		ctx = context.Background()
		var err error
		container, err = tcpostgres.Run(ctx,
			"postgres:16-alpine",
			tcpostgres.WithDatabase("threadboard_test"),
			tcpostgres.WithUsername("threadboard"),
			tcpostgres.WithPassword("threadboard"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(30*time.Second)),
		)
		Expect(err).NotTo(HaveOccurred())

		connStr, err := container.ConnectionString(ctx, "sslmode=disable")
		Expect(err).NotTo(HaveOccurred())

		migrator, err := store.NewMigrator(connStr)
		Expect(err).NotTo(HaveOccurred())
		Expect(migrator.Up()).To(Succeed())
		Expect(migrator.Close()).To(Succeed())

		pool, err = store.Connect(ctx, connStr, 10*time.Second)
		Expect(err).NotTo(HaveOccurred())
		repo = postgres.NewUserRepository(pool)
	})

	AfterAll(func() {
		if pool != nil {
			pool.Close()
		}
		if container != nil {
			_ = container.Terminate(ctx)
		}
	})

	AfterEach(func() {
		_, err := pool.Exec(ctx, `DELETE FROM users`)
		Expect(err).NotTo(HaveOccurred())
	})

	create := func(username, email string) *auth.User {
		user, err := auth.NewUser(username, email, "$argon2id$hash")
		Expect(err).NotTo(HaveOccurred())
		Expect(repo.Create(ctx, user)).To(Succeed())
		return user
	}

	It("round-trips a created user", func() {
		user := create("alice", "a@b.com")

		stored, err := repo.GetByUsername(ctx, "alice")
		Expect(err).NotTo(HaveOccurred())
		Expect(stored.ID).To(Equal(user.ID))
		Expect(stored.Username).To(Equal("alice"))
		Expect(stored.Email).To(Equal("a@b.com"))
		Expect(stored.PasswordHash).To(Equal("$argon2id$hash"))
		Expect(stored.CreatedAt).To(BeTemporally("~", user.CreatedAt, time.Millisecond))
	})

	It("rejects a duplicate username through the unique constraint", func() {
		create("alice", "a@b.com")

		dup, err := auth.NewUser("alice", "other@b.com", "$argon2id$hash")
		Expect(err).NotTo(HaveOccurred())
		Expect(repo.Create(ctx, dup)).To(MatchError(auth.ErrDuplicateUsername))

		var count int
		Expect(pool.QueryRow(ctx, `SELECT count(*) FROM users`).Scan(&count)).To(Succeed())
		Expect(count).To(Equal(1))
	})

	It("rejects a duplicate email through the unique constraint", func() {
		create("alice", "a@b.com")

		dup, err := auth.NewUser("bobby", "a@b.com", "$argon2id$hash")
		Expect(err).NotTo(HaveOccurred())
		Expect(repo.Create(ctx, dup)).To(MatchError(auth.ErrDuplicateEmail))
	})

	It("matches usernames and emails exactly", func() {
		create("alice", "a@b.com")

		_, err := repo.GetByUsername(ctx, "Alice")
		Expect(err).To(MatchError(auth.ErrNotFound))
		_, err = repo.GetByEmail(ctx, "A@B.com")
		Expect(err).To(MatchError(auth.ErrNotFound))
	})

	It("prefers the username match in FindByUsernameOrEmail", func() {
		create("alice", "a@b.com")
		create("bobby", "bob@b.com")

		found, err := repo.FindByUsernameOrEmail(ctx, "bobby", "a@b.com")
		Expect(err).NotTo(HaveOccurred())
		Expect(found.Username).To(Equal("bobby"))

		found, err = repo.FindByUsernameOrEmail(ctx, "nobody", "a@b.com")
		Expect(err).NotTo(HaveOccurred())
		Expect(found.Username).To(Equal("alice"))

		_, err = repo.FindByUsernameOrEmail(ctx, "nobody", "none@b.com")
		Expect(err).To(MatchError(auth.ErrNotFound))
	})

	It("updates the password hash", func() {
		user := create("alice", "a@b.com")
		Expect(repo.UpdatePassword(ctx, user.ID, "$argon2id$new")).To(Succeed())

		stored, err := repo.GetByUsername(ctx, "alice")
		Expect(err).NotTo(HaveOccurred())
		Expect(stored.PasswordHash).To(Equal("$argon2id$new"))
	})
})
