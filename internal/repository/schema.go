package repository

// Schema definitions for the scam intelligence store.
// Compatible with both SQLite and PostgreSQL.

const schemaScamRecords = `
CREATE TABLE IF NOT EXISTS scam_records (
    address TEXT NOT NULL,
    kind TEXT NOT NULL,
    category TEXT NOT NULL,
    source TEXT NOT NULL,
    confidence REAL,
    notes TEXT NOT NULL DEFAULT '',
    cluster_id TEXT NOT NULL DEFAULT '',
    updated_at TIMESTAMP NOT NULL,
    PRIMARY KEY (address, kind)
);

CREATE INDEX IF NOT EXISTS idx_scam_records_kind ON scam_records(kind);
`

const schemaScamClusters = `
CREATE TABLE IF NOT EXISTS scam_clusters (
    cluster_id TEXT PRIMARY KEY,
    source TEXT NOT NULL,
    confidence REAL,
    notes TEXT NOT NULL DEFAULT '',
    updated_at TIMESTAMP NOT NULL
);
`

// schemaScamClusterMembers keeps member order so the first cluster to claim
// an address stays stable across reloads.
const schemaScamClusterMembers = `
CREATE TABLE IF NOT EXISTS scam_cluster_members (
    cluster_id TEXT NOT NULL,
    address TEXT NOT NULL,
    position INTEGER NOT NULL,
    PRIMARY KEY (cluster_id, address)
);

CREATE INDEX IF NOT EXISTS idx_scam_cluster_members_address ON scam_cluster_members(address);
`

// AllSchemas returns all schema statements in order.
func AllSchemas() []string {
	return []string{
		schemaScamRecords,
		schemaScamClusters,
		schemaScamClusterMembers,
	}
}
