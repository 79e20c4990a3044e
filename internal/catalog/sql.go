package catalog

import (
	_ "embed"
)

const (
	upsertObjectSQL = `
INSERT INTO objects (id,
                     name,
                     kind,
                     ra_hours,
                     dec_degrees,
                     magnitude,
                     updated_at)
VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
ON CONFLICT (id) DO UPDATE SET name        = excluded.name,
                               kind        = excluded.kind,
                               ra_hours    = excluded.ra_hours,
                               dec_degrees = excluded.dec_degrees,
                               magnitude   = excluded.magnitude,
                               updated_at  = excluded.updated_at`

	selectBrightSQL = `
SELECT 
    id, 
    name, 
    kind, 
    ra_hours, 
    dec_degrees, 
    magnitude 
FROM objects 
WHERE 
    magnitude <= ? 
    OR kind IN ('planet', 'moon')
ORDER BY magnitude, id`

	selectObjectSQL = `
SELECT 
    id, 
    name, 
    kind, 
    ra_hours, 
    dec_degrees, 
    magnitude 
FROM objects 
WHERE 
    id = ?`

	countObjectsSQL = `SELECT COUNT(*) FROM objects`
)

//go:embed schema.sql
var initSchemaSQL string
