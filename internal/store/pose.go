package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// Pose represents a reference dance pose stored in the database.
type Pose struct {
	ID          string
	Name        string
	Difficulty  string
	Tags        []string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Keypoint represents one stored body keypoint of a pose.
type Keypoint struct {
	Index      int
	X          float64
	Y          float64
	Confidence float64
	Name       string
}

// PoseRepository provides CRUD operations for poses.
type PoseRepository struct {
	db *sql.DB
}

// Poses returns the pose repository for this store.
func (s *Store) Poses() *PoseRepository {
	return &PoseRepository{db: s.db}
}

// Create inserts a new pose with its keypoints into the database.
func (r *PoseRepository) Create(p *Pose, keypoints []Keypoint) error {
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now

	tags, err := json.Marshal(p.Tags)
	if err != nil {
		return err
	}

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO poses (id, name, difficulty, tags, description, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Difficulty, string(tags), p.Description, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return err
	}

	if err := insertKeypoints(tx, p.ID, keypoints); err != nil {
		return err
	}

	return tx.Commit()
}

// ReplaceAll replaces every stored pose with the given set in one
// transaction. Used to persist the whole in-memory library at once.
func (r *PoseRepository) ReplaceAll(poses []*Pose, keypoints [][]Keypoint) error {
	if len(poses) != len(keypoints) {
		return errors.New("poses and keypoints length mismatch")
	}

	now := time.Now()

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM poses`); err != nil {
		return err
	}

	for i, p := range poses {
		p.CreatedAt = now
		p.UpdatedAt = now

		tags, err := json.Marshal(p.Tags)
		if err != nil {
			return err
		}

		_, err = tx.Exec(
			`INSERT INTO poses (id, name, difficulty, tags, description, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			p.ID, p.Name, p.Difficulty, string(tags), p.Description, p.CreatedAt, p.UpdatedAt,
		)
		if err != nil {
			return err
		}

		if err := insertKeypoints(tx, p.ID, keypoints[i]); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetByID retrieves a pose by its ID.
func (r *PoseRepository) GetByID(id string) (*Pose, error) {
	return r.getBy(`SELECT id, name, difficulty, tags, description, created_at, updated_at
		 FROM poses WHERE id = ?`, id)
}

// GetByName retrieves a pose by its unique name.
func (r *PoseRepository) GetByName(name string) (*Pose, error) {
	return r.getBy(`SELECT id, name, difficulty, tags, description, created_at, updated_at
		 FROM poses WHERE name = ?`, name)
}

func (r *PoseRepository) getBy(query string, arg any) (*Pose, error) {
	p := &Pose{}
	var tags string

	err := r.db.QueryRow(query, arg).
		Scan(&p.ID, &p.Name, &p.Difficulty, &tags, &p.Description, &p.CreatedAt, &p.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if err := json.Unmarshal([]byte(tags), &p.Tags); err != nil {
		return nil, err
	}
	return p, nil
}

// List retrieves all poses in insertion order.
func (r *PoseRepository) List() ([]*Pose, error) {
	rows, err := r.db.Query(
		`SELECT id, name, difficulty, tags, description, created_at, updated_at
		 FROM poses ORDER BY created_at ASC, rowid ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var poses []*Pose
	for rows.Next() {
		p := &Pose{}
		var tags string

		err := rows.Scan(&p.ID, &p.Name, &p.Difficulty, &tags, &p.Description, &p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			return nil, err
		}

		if err := json.Unmarshal([]byte(tags), &p.Tags); err != nil {
			return nil, err
		}
		poses = append(poses, p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return poses, nil
}

// GetKeypoints retrieves the keypoints of a pose ordered by keypoint index.
func (r *PoseRepository) GetKeypoints(poseID string) ([]Keypoint, error) {
	rows, err := r.db.Query(
		`SELECT keypoint_index, x, y, confidence, name
		 FROM pose_keypoints WHERE pose_id = ? ORDER BY keypoint_index ASC`,
		poseID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keypoints []Keypoint
	for rows.Next() {
		var kp Keypoint
		if err := rows.Scan(&kp.Index, &kp.X, &kp.Y, &kp.Confidence, &kp.Name); err != nil {
			return nil, err
		}
		keypoints = append(keypoints, kp)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return keypoints, nil
}

// Update replaces a pose's metadata and keypoints.
func (r *PoseRepository) Update(p *Pose, keypoints []Keypoint) error {
	p.UpdatedAt = time.Now()

	tags, err := json.Marshal(p.Tags)
	if err != nil {
		return err
	}

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.Exec(
		`UPDATE poses SET name = ?, difficulty = ?, tags = ?, description = ?, updated_at = ?
		 WHERE id = ?`,
		p.Name, p.Difficulty, string(tags), p.Description, p.UpdatedAt, p.ID,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	if keypoints != nil {
		if _, err := tx.Exec(`DELETE FROM pose_keypoints WHERE pose_id = ?`, p.ID); err != nil {
			return err
		}
		if err := insertKeypoints(tx, p.ID, keypoints); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Delete removes a pose from the database by its ID.
// Keypoints cascade with the pose row.
func (r *PoseRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM poses WHERE id = ?`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// DeleteByName removes a pose from the database by its unique name.
func (r *PoseRepository) DeleteByName(name string) error {
	result, err := r.db.Exec(`DELETE FROM poses WHERE name = ?`, name)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

func insertKeypoints(tx *sql.Tx, poseID string, keypoints []Keypoint) error {
	for _, kp := range keypoints {
		_, err := tx.Exec(
			`INSERT INTO pose_keypoints (pose_id, keypoint_index, x, y, confidence, name)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			poseID, kp.Index, kp.X, kp.Y, kp.Confidence, kp.Name,
		)
		if err != nil {
			return err
		}
	}
	return nil
}
