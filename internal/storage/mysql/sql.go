package mysql

const upsertAccommodationSQL = `
INSERT INTO accommodations
  (id, name, category, region, address, lat, lon, status, lead_status,
   phone, email, whatsapp, instagram, telegram, website,
   price_min, price_max, capacity, rating, review_count,
   description, ai_description, photos, amenities, data_sources,
   online_activity, popularity, data_completeness, commercial_potential, priority_score,
   updated_at)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?,
   ?, ?, ?, ?, ?, ?,
   ?, ?, ?, ?, ?,
   ?, ?, ?, ?, ?,
   ?, ?, ?, ?, ?,
   ?)
ON DUPLICATE KEY UPDATE
  name                 = VALUES(name),
  category             = VALUES(category),
  region               = VALUES(region),
  address              = VALUES(address),
  lat                  = VALUES(lat),
  lon                  = VALUES(lon),
  status               = VALUES(status),
  lead_status          = VALUES(lead_status),
  phone                = VALUES(phone),
  email                = VALUES(email),
  whatsapp             = VALUES(whatsapp),
  instagram            = VALUES(instagram),
  telegram             = VALUES(telegram),
  website              = VALUES(website),
  price_min            = VALUES(price_min),
  price_max            = VALUES(price_max),
  capacity             = VALUES(capacity),
  rating               = VALUES(rating),
  review_count         = VALUES(review_count),
  -- keep curated copy when an update arrives without one
  description          = COALESCE(VALUES(description), accommodations.description),
  ai_description       = COALESCE(VALUES(ai_description), accommodations.ai_description),
  photos               = VALUES(photos),
  amenities            = VALUES(amenities),
  data_sources         = VALUES(data_sources),
  online_activity      = VALUES(online_activity),
  popularity           = VALUES(popularity),
  data_completeness    = VALUES(data_completeness),
  commercial_potential = VALUES(commercial_potential),
  priority_score       = VALUES(priority_score),
  updated_at           = VALUES(updated_at)
`

const insertMissSQL = `
INSERT INTO ingest_misses (id, http_status, reason)
VALUES (?, ?, ?)
ON DUPLICATE KEY UPDATE http_status = VALUES(http_status), seen_at = CURRENT_TIMESTAMP
`

// -----------------------------------------------------------------------------
// READ QUERIES
// -----------------------------------------------------------------------------

// Column order must match scanAccommodation.
const selectAccommodationCols = `
SELECT
  id, name, category, region, address, lat, lon, status, lead_status,
  phone, email, whatsapp, instagram, telegram, website,
  price_min, price_max, capacity, rating, review_count,
  description, ai_description, photos, amenities, data_sources,
  online_activity, popularity, data_completeness, commercial_potential, priority_score,
  updated_at
FROM accommodations
`

const getAccommodationSQL = selectAccommodationCols + `WHERE id = ?`

const listAccommodationsSQL = selectAccommodationCols + `ORDER BY id`
