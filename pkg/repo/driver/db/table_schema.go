package db

import "custody/pkg/consts"

var dbTableSchemas = map[string]string{
	consts.VaultStateTable:    vaultStateSchema,
	consts.VaultEventsTable:   vaultEventsSchema,
	consts.VaultPaymentsTable: vaultPaymentsSchema,
}

// whole engine dumps, one row per key
var vaultStateSchema = `
CREATE TABLE IF NOT EXISTS %s.vault_state (
id text,
state blob,
version bigint,
updated timestamp,
PRIMARY KEY (id)
)
`

var vaultEventsSchema = `
CREATE TABLE IF NOT EXISTS %s.vault_events (
vault_id int,
created timeuuid,
uuid text,
kind text,
event_time bigint,
payload text,
PRIMARY KEY (vault_id, created)
) WITH CLUSTERING ORDER BY (created DESC)
`

var vaultPaymentsSchema = `
CREATE TABLE IF NOT EXISTS %s.vault_payments (
vault_id int,
payment_id int,
name text,
reference text,
spender text,
recipient text,
amount varint,
paid_time bigint,
PRIMARY KEY (vault_id, payment_id)
) WITH CLUSTERING ORDER BY (payment_id DESC)
`
