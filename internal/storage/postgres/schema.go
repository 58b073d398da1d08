package postgres

// Constraint names are matched when mapping unique violations
const (
	usernameConstraint  = "identity_username_key"
	gameScoreConstraint = "score_record_game_kind_identity_id_key"
)

var identityTable = `create table if not exists identity (
    id            bigint GENERATED ALWAYS AS IDENTITY primary key,
    username      varchar(15) NOT NULL CONSTRAINT identity_username_key UNIQUE,
    password_hash varchar NOT NULL,
    first_name    varchar(30) NOT NULL,
    created_at    timestamptz NOT NULL DEFAULT now())`

var scoreRecordTable = `create table if not exists score_record (
    id          bigint GENERATED ALWAYS AS IDENTITY primary key,
    game_kind   varchar NOT NULL,
    score       integer NOT NULL DEFAULT 0 CHECK (score >= 0),
    identity_id bigint NOT NULL REFERENCES identity (id),
    CONSTRAINT score_record_game_kind_identity_id_key UNIQUE (game_kind, identity_id))`

var revokedSessionTable = `create table if not exists revoked_session (
    token_id   varchar primary key,
    expires_at timestamptz NOT NULL)`

var tables = []string{
	identityTable,
	scoreRecordTable,
	revokedSessionTable,
}
