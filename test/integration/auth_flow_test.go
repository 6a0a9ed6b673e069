// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Threadboard Contributors

//go:build integration

package integration

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/threadboard/threadboard/internal/api"
	"github.com/threadboard/threadboard/internal/auth"
	authpg "github.com/threadboard/threadboard/internal/auth/postgres"
	"github.com/threadboard/threadboard/internal/session"
	"github.com/threadboard/threadboard/internal/session/backend"
)

type mutationResult struct {
	Code    int    `json:"code"`
	Success bool   `json:"success"`
	Message string `json:"message"`
	Errors  []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	} `json:"errors"`
	User *struct {
		ID       string `json:"id"`
		Username string `json:"username"`
		Email    string `json:"email"`
	} `json:"user"`
}

type client struct {
	url  string
	http *http.Client
}

func (c *client) graphql(query string) map[string]json.RawMessage {
	body, err := json.Marshal(api.Request{Query: query})
	Expect(err).NotTo(HaveOccurred())

	resp, err := c.http.Post(c.url+"/graphql", "application/json", strings.NewReader(string(body)))
	Expect(err).NotTo(HaveOccurred())
	defer func() { _ = resp.Body.Close() }()
	Expect(resp.StatusCode).To(Equal(http.StatusOK))

	var out struct {
		Data   map[string]json.RawMessage `json:"data"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	Expect(json.NewDecoder(resp.Body).Decode(&out)).To(Succeed())
	Expect(out.Errors).To(BeEmpty())
	return out.Data
}

func (c *client) mutation(name, query string) mutationResult {
	var r mutationResult
	Expect(json.Unmarshal(c.graphql(query)[name], &r)).To(Succeed())
	return r
}

const resultFields = `code success message errors { field message } user { id username email }`

var _ = Describe("GraphQL account flow", func() {
	var (
		c     *client
		srv   *httptest.Server
		store session.Store
	)

	BeforeEach(func() {
		resetTables()
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))

		var err error
		store, err = backend.Open(env.ctx, env.connStr, backend.Options{
			DatabaseURL: env.connStr,
			Pool:        env.pool,
			Logger:      logger,
		})
		Expect(err).NotTo(HaveOccurred())

		svc, err := auth.NewAuthServiceWithLogger(authpg.NewUserRepository(env.pool), auth.NewArgon2idHasher(), logger)
		Expect(err).NotTo(HaveOccurred())
		codec, err := session.NewCookieCodec("integration-secret", false)
		Expect(err).NotTo(HaveOccurred())
		manager, err := session.NewManager(store, codec, logger)
		Expect(err).NotTo(HaveOccurred())
		resolvers, err := api.NewResolvers(svc, nil)
		Expect(err).NotTo(HaveOccurred())
		schema, err := resolvers.Schema()
		Expect(err).NotTo(HaveOccurred())

		srv = httptest.NewServer(manager.Middleware(api.NewHandler(schema, nil, logger)))
		jar, err := cookiejar.New(nil)
		Expect(err).NotTo(HaveOccurred())
		c = &client{url: srv.URL, http: &http.Client{Jar: jar}}
	})

	AfterEach(func() {
		srv.Close()
		Expect(store.Close()).To(Succeed())
	})

	countRows := func(table string) int {
		var n int
		Expect(env.pool.QueryRow(env.ctx, `SELECT count(*) FROM `+table).Scan(&n)).To(Succeed())
		return n
	}

	It("answers hello", func() {
		Expect(string(c.graphql(`{ hello }`)["hello"])).To(Equal(`"Hello"`))
	})

	It("registers, rejects duplicates, logs in and out", func() {
		reg := c.mutation("register", `mutation { register(registerInput: {username: "alice", email: "a@b.com", password: "secret"}) { `+resultFields+` } }`)
		Expect(reg.Code).To(Equal(200))
		Expect(reg.Success).To(BeTrue())
		Expect(reg.User.Username).To(Equal("alice"))
		Expect(countRows("sessions")).To(Equal(1))

		var stored string
		Expect(env.pool.QueryRow(env.ctx, `SELECT password_hash FROM users WHERE username = 'alice'`).Scan(&stored)).To(Succeed())
		Expect(stored).To(HavePrefix("$argon2id$"))

		dup := c.mutation("register", `mutation { register(registerInput: {username: "alice", email: "other@b.com", password: "other"}) { `+resultFields+` } }`)
		Expect(dup.Code).To(Equal(400))
		Expect(dup.Errors).To(HaveLen(1))
		Expect(dup.Errors[0].Field).To(Equal("username"))
		Expect(dup.Errors[0].Message).To(ContainSubstring("already exists"))
		Expect(countRows("users")).To(Equal(1))

		dupEmail := c.mutation("register", `mutation { register(registerInput: {username: "alice2", email: "a@b.com", password: "other"}) { `+resultFields+` } }`)
		Expect(dupEmail.Errors[0].Field).To(Equal("email"))

		Expect(string(c.graphql(`mutation { logout }`)["logout"])).To(Equal("true"))
		Expect(countRows("sessions")).To(Equal(0))

		unknown := c.mutation("login", `mutation { login(loginInput: {usernameOrEmail: "nobody", password: "secret"}) { `+resultFields+` } }`)
		Expect(unknown.Code).To(Equal(400))
		Expect(unknown.Errors[0].Field).To(Equal("usernameOrEmail"))
		Expect(countRows("sessions")).To(Equal(0))

		login := c.mutation("login", `mutation { login(loginInput: {usernameOrEmail: "a@b.com", password: "secret"}) { `+resultFields+` } }`)
		Expect(login.Code).To(Equal(200))
		Expect(login.User.ID).To(Equal(reg.User.ID))
		Expect(countRows("sessions")).To(Equal(1))
	})

	It("reports validation failures before touching the database", func() {
		r := c.mutation("register", `mutation { register(registerInput: {username: "bob", email: "b@b.com", password: "secret"}) { `+resultFields+` } }`)
		Expect(r.Code).To(Equal(400))
		Expect(r.Errors[0].Field).To(Equal("username"))
		Expect(countRows("users")).To(Equal(0))
	})

	It("logs out without a session", func() {
		Expect(string(c.graphql(`mutation { logout }`)["logout"])).To(Equal("true"))
	})
})
