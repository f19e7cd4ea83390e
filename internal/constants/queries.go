package constants

const (
	// TeamRoster returns one row per (profile, role) for members holding a role.
	// Callers collapse rows per profile with the role resolver.
	TeamRoster = `
	SELECT p.id, p.name, p.email, COALESCE(p.major, '') AS major, COALESCE(p.bio, '') AS bio,
	       COALESCE(p.image_url, '') AS image_url, r.role
	FROM profiles p
	JOIN user_roles r ON r.user_id = p.id
	ORDER BY p.name ASC
	`
)
