package store

const schemaSQL = `
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    source TEXT NOT NULL,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    report JSON
);

CREATE TABLE IF NOT EXISTS images (
    run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    id TEXT NOT NULL,
    page INTEGER NOT NULL,
    filename TEXT NOT NULL,
    source TEXT NOT NULL,
    bbox JSON,
    confidence REAL,
    hash TEXT,
    width INTEGER,
    height INTEGER,
    score INTEGER,
    likely_image INTEGER,
    associated_topic_id TEXT,
    PRIMARY KEY (run_id, id)
);

CREATE TABLE IF NOT EXISTS topics (
    run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    id TEXT NOT NULL,
    page INTEGER NOT NULL,
    content TEXT NOT NULL,
    question_type TEXT NOT NULL,
    options JSON,
    correct_answer TEXT,
    rationale TEXT,
    subject TEXT,
    confidence REAL,
    PRIMARY KEY (run_id, id)
);

CREATE TABLE IF NOT EXISTS topic_images (
    run_id TEXT NOT NULL,
    topic_id TEXT NOT NULL,
    image_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    PRIMARY KEY (run_id, topic_id, image_id),
    FOREIGN KEY (run_id, topic_id) REFERENCES topics(run_id, id) ON DELETE CASCADE,
    FOREIGN KEY (run_id, image_id) REFERENCES images(run_id, id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_images_page ON images(run_id, page);
CREATE INDEX IF NOT EXISTS idx_topics_page ON topics(run_id, page);
`
