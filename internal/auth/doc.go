// Package auth provides librarian accounts for the catalog.
//
// It supports two modes:
//   - "none": no authentication, every page and form is open (default)
//   - "local": catalog pages stay public, but creating, updating and deleting
//     records requires a librarian session
//
// # Configuration
//
//	AUTH_MODE=local
//	AUTH_SESSION_SECRET=<32+ random bytes>  # CSRF key, generated per process if empty
//	AUTH_SESSION_LIFETIME=12h
//	AUTH_BCRYPT_COST=12
//	AUTH_SECURE_COOKIES=true
//	AUTH_MAX_LOGIN_ATTEMPTS=5
//	AUTH_LOCKOUT_DURATION=30m
//
// # Usage
//
//	svc := auth.NewService(users.NewRepository(db), cfg.Auth, nil)
//	sm, _ := auth.NewSessionManager(sqlDB, cfg.Auth)
//	mw := auth.NewMiddleware(svc, sm, cfg.Auth)
//	router.Use(sm.LoadSession(), mw.Handler())
//	writes := router.Group("/", mw.RequireAuth())
package auth
