package model

import "testing"

func TestIsValidDialect(t *testing.T) {
	for _, d := range []Dialect{DialectPostgres, DialectRedshift, DialectCockroachDB,
		DialectMySQL, DialectMariaDB, DialectSQLServer} {
		if !IsValidDialect(d) {
			t.Errorf("Expected %s to be valid", d)
		}
	}
	if IsValidDialect("oracle") {
		t.Error("Expected oracle to be rejected")
	}
	if IsValidDialect("") {
		t.Error("Expected empty dialect to be rejected")
	}
}

func TestDialectFamily(t *testing.T) {
	cases := map[Dialect]Dialect{
		DialectPostgres:    DialectPostgres,
		DialectRedshift:    DialectPostgres,
		DialectCockroachDB: DialectPostgres,
		DialectMySQL:       DialectMySQL,
		DialectMariaDB:     DialectMySQL,
		DialectSQLServer:   DialectSQLServer,
	}
	for d, want := range cases {
		if got := d.Family(); got != want {
			t.Errorf("Family(%s): expected %s, got %s", d, want, got)
		}
	}
}

func TestDefaultPort(t *testing.T) {
	cases := map[Dialect]int{
		DialectPostgres:    5432,
		DialectRedshift:    5439,
		DialectCockroachDB: 26257,
		DialectMySQL:       3306,
		DialectMariaDB:     3306,
		DialectSQLServer:   1433,
	}
	for d, want := range cases {
		if got := d.DefaultPort(); got != want {
			t.Errorf("DefaultPort(%s): expected %d, got %d", d, want, got)
		}
	}
}

func TestEffectivePort(t *testing.T) {
	cfg := &ConnectionConfig{Dialect: DialectPostgres}
	if got := cfg.EffectivePort(); got != 5432 {
		t.Errorf("Expected dialect default 5432, got %d", got)
	}
	cfg.Port = 15432
	if got := cfg.EffectivePort(); got != 15432 {
		t.Errorf("Expected explicit port 15432, got %d", got)
	}
}

func TestFingerprintStable(t *testing.T) {
	a := &ConnectionConfig{Dialect: DialectPostgres, Host: "db", Database: "app", Username: "u"}
	b := &ConnectionConfig{Dialect: DialectPostgres, Host: "db", Database: "app", Username: "u"}
	if a.Fingerprint() != b.Fingerprint() {
		t.Error("Identical targets must share a fingerprint")
	}

	// explicit default port and unset port are the same target
	b.Port = 5432
	if a.Fingerprint() != b.Fingerprint() {
		t.Error("Explicit default port must not change the fingerprint")
	}

	b.Database = "other"
	if a.Fingerprint() == b.Fingerprint() {
		t.Error("Different databases must not collide")
	}
}

func TestFingerprintExcludesCredentials(t *testing.T) {
	a := &ConnectionConfig{Dialect: DialectMySQL, Host: "db", Database: "app", Username: "u", Password: "one"}
	b := &ConnectionConfig{Dialect: DialectMySQL, Host: "db", Database: "app", Username: "u", Password: "two"}
	if a.Fingerprint() != b.Fingerprint() {
		t.Error("Password must not affect the fingerprint")
	}

	b.SSLMode = "require"
	if a.Fingerprint() != b.Fingerprint() {
		t.Error("SSL mode must not affect the fingerprint")
	}
}

func TestFingerprintIncludesTunnelEndpoint(t *testing.T) {
	direct := &ConnectionConfig{Dialect: DialectPostgres, Host: "db", Database: "app", Username: "u"}
	tunneled := &ConnectionConfig{
		Dialect: DialectPostgres, Host: "db", Database: "app", Username: "u",
		SSHTunnel: &SSHTunnelConfig{Host: "bastion", Port: 22, Username: "ops"},
	}
	if direct.Fingerprint() == tunneled.Fingerprint() {
		t.Error("Tunneled and direct connections must not collide")
	}

	// tunnel credentials stay out, the endpoint matters
	other := &ConnectionConfig{
		Dialect: DialectPostgres, Host: "db", Database: "app", Username: "u",
		SSHTunnel: &SSHTunnelConfig{Host: "bastion", Port: 22, Username: "ops", Password: "secret"},
	}
	if tunneled.Fingerprint() != other.Fingerprint() {
		t.Error("Tunnel password must not affect the fingerprint")
	}
}
