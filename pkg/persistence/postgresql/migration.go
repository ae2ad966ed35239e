package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE graphs (
				id VARCHAR(255) PRIMARY KEY,
				name VARCHAR(255) NOT NULL DEFAULT '',
				definition JSONB NOT NULL DEFAULT '{"nodes":[],"connections":[]}',
				revision BIGINT NOT NULL DEFAULT 0,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_graphs_name ON graphs(name);
			CREATE INDEX idx_graphs_created_at ON graphs(created_at);
			CREATE INDEX idx_graphs_updated_at ON graphs(updated_at);
		`,
	}
}
