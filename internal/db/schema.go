package db

// SchemaSQL contains the database schema initialization SQL.
//
// Steps, edges and ingredients reference their recipe by plain id string so
// the step number stays the only link between the three step tables.
const SchemaSQL = `
    -- ==========================================================================
    -- RECIPE TABLE
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS recipe SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS title ON recipe TYPE string;
    DEFINE FIELD IF NOT EXISTS description ON recipe TYPE string DEFAULT "";
    DEFINE FIELD IF NOT EXISTS servings ON recipe TYPE option<int>;
    DEFINE FIELD IF NOT EXISTS created ON recipe TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS recipe_title ON recipe FIELDS title;

    -- ==========================================================================
    -- RECIPE STEP TABLE
    -- ==========================================================================
    -- step_num 0 is reserved as the swap scratch value and never persists
    DEFINE TABLE IF NOT EXISTS recipe_step SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS recipe_id ON recipe_step TYPE string;
    DEFINE FIELD IF NOT EXISTS step_num ON recipe_step TYPE int ASSERT $value >= 0;
    DEFINE FIELD IF NOT EXISTS step_title ON recipe_step TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS description ON recipe_step TYPE string;
    DEFINE FIELD IF NOT EXISTS duration ON recipe_step TYPE option<int>;
    DEFINE FIELD IF NOT EXISTS created ON recipe_step TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS recipe_step_num ON recipe_step FIELDS recipe_id, step_num UNIQUE;

    -- ==========================================================================
    -- STEP OUTPUT USE TABLE (dependency edges)
    -- ==========================================================================
    -- input_step_num consumes the output of output_step_num
    DEFINE TABLE IF NOT EXISTS step_output_use SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS recipe_id ON step_output_use TYPE string;
    DEFINE FIELD IF NOT EXISTS output_step_num ON step_output_use TYPE int;
    DEFINE FIELD IF NOT EXISTS input_step_num ON step_output_use TYPE int;
    DEFINE FIELD IF NOT EXISTS created ON step_output_use TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS step_output_use_unique ON step_output_use FIELDS recipe_id, output_step_num, input_step_num UNIQUE;
    DEFINE INDEX IF NOT EXISTS step_output_use_producer ON step_output_use FIELDS recipe_id, output_step_num;

    -- ==========================================================================
    -- INGREDIENT TABLE
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS ingredient SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS recipe_id ON ingredient TYPE string;
    DEFINE FIELD IF NOT EXISTS step_num ON ingredient TYPE int;
    DEFINE FIELD IF NOT EXISTS quantity ON ingredient TYPE option<float>;
    DEFINE FIELD IF NOT EXISTS unit ON ingredient TYPE string DEFAULT "";
    DEFINE FIELD IF NOT EXISTS name ON ingredient TYPE string;
    DEFINE FIELD IF NOT EXISTS raw ON ingredient TYPE string DEFAULT "";
    DEFINE FIELD IF NOT EXISTS created ON ingredient TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS ingredient_step ON ingredient FIELDS recipe_id, step_num;
`
