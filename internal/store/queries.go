package store

// SQL query constants organized by entity.
// All SQL lives here; PostgresStore methods reference these constants.

// Product queries.
const (
	queryGetProduct = `
		SELECT id, title, current_price, in_stock, tracking_count, created_at, updated_at
		FROM products
		WHERE id = $1`

	queryUpsertProduct = `
		INSERT INTO products (id, title, current_price, in_stock, created_at, updated_at)
		VALUES (@id, @title, @current_price, @in_stock, now(), now())
		ON CONFLICT (id) DO UPDATE SET
			title         = EXCLUDED.title,
			current_price = EXCLUDED.current_price,
			in_stock      = EXCLUDED.in_stock,
			updated_at    = now()
		RETURNING tracking_count, created_at, updated_at`
)

// Observation queries.
const (
	queryRecordObservation = `
		INSERT INTO price_observations (product_id, observed_on, price, in_stock)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (product_id, observed_on) DO NOTHING`

	queryListObservations = `
		SELECT product_id, observed_on, price, in_stock
		FROM price_observations
		WHERE product_id = $1
		ORDER BY observed_on ASC`
)

// Tracking queries.
const (
	queryGetTracking = `
		SELECT user_id, product_id, is_favorite, email_alert, push_alert, created_at, updated_at
		FROM tracked_products
		WHERE user_id = $1 AND product_id = $2`

	queryGetTrackingForUpdate = queryGetTracking + `
		FOR UPDATE`

	queryListUserTracking = `
		SELECT user_id, product_id, is_favorite, email_alert, push_alert, created_at, updated_at
		FROM tracked_products
		WHERE user_id = $1
		ORDER BY created_at DESC`

	queryCountProductTracking = `
		SELECT COUNT(*)
		FROM tracked_products
		WHERE product_id = $1 AND (email_alert OR push_alert)`

	queryCountFavorites = `
		SELECT COUNT(*)
		FROM tracked_products
		WHERE user_id = $1 AND is_favorite = true`

	queryUpsertTracking = `
		INSERT INTO tracked_products (
			user_id, product_id, is_favorite, email_alert, push_alert, created_at, updated_at
		) VALUES (
			@user_id, @product_id, @is_favorite, @email_alert, @push_alert, now(), now()
		)
		ON CONFLICT (user_id, product_id) DO UPDATE SET
			is_favorite = EXCLUDED.is_favorite,
			email_alert = EXCLUDED.email_alert,
			push_alert  = EXCLUDED.push_alert,
			updated_at  = now()`

	queryDeleteTracking = `
		DELETE FROM tracked_products
		WHERE user_id = $1 AND product_id = $2`

	queryAdjustTrackingCount = `
		UPDATE products SET
			tracking_count = GREATEST(tracking_count + $2, 0),
			updated_at     = now()
		WHERE id = $1
		RETURNING tracking_count`

	queryGetTrackingCount = `
		SELECT tracking_count FROM products WHERE id = $1`
)

// Reconciliation. Repairs tracking_count drift against the tracking rows;
// returns one row per repaired product.
const queryReconcileTrackingCounts = `
	UPDATE products p SET
		tracking_count = live.n,
		updated_at     = now()
	FROM (
		SELECT pr.id, COALESCE(t.n, 0) AS n
		FROM products pr
		LEFT JOIN (
			SELECT product_id, COUNT(*) AS n
			FROM tracked_products
			WHERE email_alert OR push_alert
			GROUP BY product_id
		) t ON t.product_id = pr.id
	) live
	WHERE live.id = p.id AND p.tracking_count <> live.n`
