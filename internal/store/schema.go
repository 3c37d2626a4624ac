package store

// SchemaSQL contains the conversation store schema initialization SQL.
const SchemaSQL = `
    -- ==========================================================================
    -- CONVERSATION TABLE
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS conversation SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS owner ON conversation TYPE string;
    DEFINE FIELD IF NOT EXISTS created_at ON conversation TYPE datetime DEFAULT time::now();
    DEFINE FIELD IF NOT EXISTS updated_at ON conversation TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS conversation_owner ON conversation FIELDS owner;

    -- ==========================================================================
    -- TURN TABLE (append-only conversation log)
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS turn SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS conversation ON turn TYPE record<conversation>;
    DEFINE FIELD IF NOT EXISTS role ON turn TYPE string ASSERT $value IN ["user", "assistant", "system"];
    DEFINE FIELD IF NOT EXISTS content ON turn TYPE string;
    DEFINE FIELD IF NOT EXISTS action ON turn TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS metadata ON turn TYPE option<object> FLEXIBLE;
    DEFINE FIELD IF NOT EXISTS seq ON turn TYPE int;
    DEFINE FIELD IF NOT EXISTS created_at ON turn TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS turn_conversation ON turn FIELDS conversation;
    DEFINE INDEX IF NOT EXISTS turn_order ON turn FIELDS conversation, seq;
`
