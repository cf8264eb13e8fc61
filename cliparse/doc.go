// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

Values come from flags first, then the process environment, then an
optional dotenv file (-env-file, default ".env"), then defaults. The dotenv
file never overrides variables already present in the environment.

# Settings

	flag            env                 default
	-p              PORT                3318
	-d              DATABASE_URL        (required)
	-t              DATABASE_TYPE       sqlite (or postgres)
	-admin-salt     ADMIN_KEY_SALT      (required)
	-slug-salt      ELECTION_SLUG_SALT  (required)
	-roll-key       ROLL_ADMIN_KEY      (required)
	-base-url       BASE_URL            https://rollcall.example
	-upload-dir     UPLOAD_DIR          uploads
	-max-upload     MAX_UPLOAD_BYTES    5MiB (humanized sizes accepted)
	-lookup-timeout LOOKUP_TIMEOUT      5s
	-log-level      LOG_LEVEL           info
	-log-format     LOG_FORMAT          auto (text on a terminal, else json)

# Example

	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}

	conn, err := db.Open(cfg.DatabaseType, cfg.DatabaseURL)
	// ...
	mux := router.NewRouter(conn, cfg)
*/
package cliparse
