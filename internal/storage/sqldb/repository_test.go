package sqldb

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aanand-mishra/student-records/internal/config"
	"github.com/aanand-mishra/student-records/internal/storage"
	"github.com/aanand-mishra/student-records/internal/storage/mysql"
	"github.com/aanand-mishra/student-records/internal/storage/sqlite"
	"github.com/aanand-mishra/student-records/internal/types"
)

// setupTestRepo creates a file-backed SQLite database with the schema applied.
// A file is used rather than :memory: because every operation opens its own
// connection.
func setupTestRepo(t *testing.T) (*Repository, config.Database) {
	t.Helper()

	cfg := config.Database{
		Driver:    config.DriverSQLite,
		Path:      filepath.Join(t.TempDir(), "students.db"),
		OpTimeout: 5 * time.Second,
	}

	require.NoError(t, EnsureSchema(context.Background(), cfg, sqlite.Dialect{}))

	p, err := NewProvider(cfg, sqlite.Dialect{})
	require.NoError(t, err)

	repo := NewRepository(p, cfg.OpTimeout, nil)
	t.Cleanup(func() { _ = repo.Close() })

	return repo, cfg
}

func mustCreate(t *testing.T, repo *Repository, in types.StudentInput) types.Student {
	t.Helper()
	s, err := repo.CreateStudent(context.Background(), in)
	require.NoError(t, err)
	return s
}

func countRows(t *testing.T, repo *Repository) int {
	t.Helper()
	students, err := repo.ListStudents(context.Background())
	require.NoError(t, err)
	return len(students)
}

func TestRepositoryCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("RoundTrip", func(t *testing.T) {
		repo, _ := setupTestRepo(t)

		in := types.StudentInput{Name: "Grace", Email: "grace@example.com", Phone: "555-0101", Course: "Compilers"}
		created, err := repo.CreateStudent(ctx, in)
		require.NoError(t, err)
		assert.NotZero(t, created.ID)

		got, err := repo.GetStudentByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created, got)
		assert.Equal(t, "Grace", got.Name)
		assert.Equal(t, "grace@example.com", got.Email)
		require.NotNil(t, got.Phone)
		assert.Equal(t, "555-0101", *got.Phone)
		require.NotNil(t, got.Course)
		assert.Equal(t, "Compilers", *got.Course)
	})

	t.Run("OptionalFieldsStoredAsNull", func(t *testing.T) {
		repo, _ := setupTestRepo(t)

		created := mustCreate(t, repo, types.StudentInput{Name: "Ada", Email: "ada@example.com"})

		got, err := repo.GetStudentByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Nil(t, got.Phone)
		assert.Nil(t, got.Course)
	})

	t.Run("FreshIDs", func(t *testing.T) {
		repo, _ := setupTestRepo(t)

		first := mustCreate(t, repo, types.StudentInput{Name: "A", Email: "a@example.com"})
		second := mustCreate(t, repo, types.StudentInput{Name: "B", Email: "b@example.com"})
		require.NoError(t, repo.DeleteStudentByID(ctx, second.ID))
		third := mustCreate(t, repo, types.StudentInput{Name: "C", Email: "c@example.com"})

		assert.Equal(t, int64(1), first.ID)
		assert.Equal(t, int64(2), second.ID)
		assert.Equal(t, int64(3), third.ID, "ids of deleted rows are not reused")
	})

	t.Run("DuplicateEmail", func(t *testing.T) {
		repo, _ := setupTestRepo(t)

		mustCreate(t, repo, types.StudentInput{Name: "Ada", Email: "ada@example.com"})

		_, err := repo.CreateStudent(ctx, types.StudentInput{Name: "Bob", Email: "ada@example.com"})
		require.Error(t, err)
		assert.ErrorIs(t, err, storage.ErrDuplicateEmail)
		assert.Equal(t, []string{"email"}, storage.FieldsOf(err))
		assert.Equal(t, 1, countRows(t, repo))
	})

	t.Run("Validation", func(t *testing.T) {
		repo, _ := setupTestRepo(t)

		_, err := repo.CreateStudent(ctx, types.StudentInput{Email: "x@example.com"})
		assert.ErrorIs(t, err, storage.ErrValidation)
		assert.Equal(t, []string{"name"}, storage.FieldsOf(err))

		_, err = repo.CreateStudent(ctx, types.StudentInput{})
		assert.ErrorIs(t, err, storage.ErrValidation)
		assert.ElementsMatch(t, []string{"name", "email"}, storage.FieldsOf(err))

		assert.Equal(t, 0, countRows(t, repo))
	})
}

// The mysql provider below points at a port nothing listens on: a
// validation error instead of a connection error proves the store was
// never contacted.
func TestRepositoryValidationSkipsStore(t *testing.T) {
	ctx := context.Background()
	cfg := config.Database{
		Driver:   config.DriverMySQL,
		Host:     "127.0.0.1",
		Port:     1,
		User:     "nobody",
		Password: "nothing",
		Name:     "student_db",
	}

	p, err := NewProvider(cfg, mysql.Dialect{})
	require.NoError(t, err)
	repo := NewRepository(p, 2*time.Second, nil)
	defer repo.Close()

	_, err = repo.CreateStudent(ctx, types.StudentInput{Name: "", Email: "ada@example.com"})
	assert.ErrorIs(t, err, storage.ErrValidation)

	_, err = repo.UpdateStudentByID(ctx, 1, types.StudentInput{Name: "Ada", Email: ""})
	assert.ErrorIs(t, err, storage.ErrValidation)

	_, err = repo.CreateStudent(ctx, types.StudentInput{Name: "Ada", Email: "ada@example.com"})
	assert.ErrorIs(t, err, storage.ErrConnection)
}

func TestRepositoryGet(t *testing.T) {
	repo, _ := setupTestRepo(t)

	_, err := repo.GetStudentByID(context.Background(), 42)
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.Equal(t, storage.KindNotFound, storage.KindOf(err))
}

func TestRepositoryList(t *testing.T) {
	repo, _ := setupTestRepo(t)
	ctx := context.Background()

	empty, err := repo.ListStudents(ctx)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	mustCreate(t, repo, types.StudentInput{Name: "One", Email: "one@example.com"})
	mustCreate(t, repo, types.StudentInput{Name: "Two", Email: "two@example.com"})
	mustCreate(t, repo, types.StudentInput{Name: "Three", Email: "three@example.com"})

	students, err := repo.ListStudents(ctx)
	require.NoError(t, err)
	require.Len(t, students, 3)

	ids := []int64{students[0].ID, students[1].ID, students[2].ID}
	assert.Equal(t, []int64{3, 2, 1}, ids)
}

func TestRepositoryUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("NotFound", func(t *testing.T) {
		repo, _ := setupTestRepo(t)
		mustCreate(t, repo, types.StudentInput{Name: "Ada", Email: "ada@example.com"})

		_, err := repo.UpdateStudentByID(ctx, 99, types.StudentInput{Name: "Ghost", Email: "ghost@example.com"})
		require.Error(t, err)
		assert.ErrorIs(t, err, storage.ErrNotFound)

		students, err := repo.ListStudents(ctx)
		require.NoError(t, err)
		require.Len(t, students, 1)
		assert.Equal(t, "Ada", students[0].Name)
	})

	t.Run("ChangesOnlyTargetRow", func(t *testing.T) {
		repo, _ := setupTestRepo(t)
		ada := mustCreate(t, repo, types.StudentInput{Name: "Ada", Email: "ada@example.com"})
		bob := mustCreate(t, repo, types.StudentInput{Name: "Bob", Email: "bob@example.com", Course: "CS"})

		updated, err := repo.UpdateStudentByID(ctx, ada.ID,
			types.StudentInput{Name: "Ada L.", Email: "ada@example.com", Phone: "555"})
		require.NoError(t, err)
		assert.Equal(t, ada.ID, updated.ID)
		assert.Equal(t, "Ada L.", updated.Name)

		gotBob, err := repo.GetStudentByID(ctx, bob.ID)
		require.NoError(t, err)
		assert.Equal(t, bob, gotBob)
	})

	t.Run("SameValuesStillMatch", func(t *testing.T) {
		repo, _ := setupTestRepo(t)
		in := types.StudentInput{Name: "Ada", Email: "ada@example.com"}
		ada := mustCreate(t, repo, in)

		updated, err := repo.UpdateStudentByID(ctx, ada.ID, in)
		require.NoError(t, err)
		assert.Equal(t, ada, updated)
	})

	t.Run("DuplicateEmail", func(t *testing.T) {
		repo, _ := setupTestRepo(t)
		mustCreate(t, repo, types.StudentInput{Name: "Ada", Email: "ada@example.com"})
		bob := mustCreate(t, repo, types.StudentInput{Name: "Bob", Email: "bob@example.com"})

		_, err := repo.UpdateStudentByID(ctx, bob.ID, types.StudentInput{Name: "Bob", Email: "ada@example.com"})
		require.Error(t, err)
		assert.ErrorIs(t, err, storage.ErrDuplicateEmail)

		got, err := repo.GetStudentByID(ctx, bob.ID)
		require.NoError(t, err)
		assert.Equal(t, "bob@example.com", got.Email)
	})
}

func TestRepositoryDelete(t *testing.T) {
	repo, _ := setupTestRepo(t)
	ctx := context.Background()

	s := mustCreate(t, repo, types.StudentInput{Name: "Ada", Email: "ada@example.com"})

	require.NoError(t, repo.DeleteStudentByID(ctx, s.ID))
	_, err := repo.GetStudentByID(ctx, s.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, repo.DeleteStudentByID(ctx, s.ID), "second delete is not an error")
	require.NoError(t, repo.DeleteStudentByID(ctx, 12345))
}

func TestRepositoryScenario(t *testing.T) {
	repo, _ := setupTestRepo(t)
	ctx := context.Background()

	ada, err := repo.CreateStudent(ctx, types.StudentInput{Name: "Ada", Email: "ada@example.com", Phone: "", Course: "Math"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), ada.ID)

	_, err = repo.CreateStudent(ctx, types.StudentInput{Name: "Bob", Email: "ada@example.com", Phone: "", Course: "CS"})
	assert.ErrorIs(t, err, storage.ErrDuplicateEmail)
	assert.Equal(t, 1, countRows(t, repo))

	_, err = repo.UpdateStudentByID(ctx, 1, types.StudentInput{Name: "Ada L.", Email: "ada@example.com", Phone: "555", Course: "Math"})
	require.NoError(t, err)

	got, err := repo.GetStudentByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Ada L.", got.Name)
	require.NotNil(t, got.Phone)
	assert.Equal(t, "555", *got.Phone)

	require.NoError(t, repo.DeleteStudentByID(ctx, 1))
	_, err = repo.GetStudentByID(ctx, 1)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	require.NoError(t, repo.DeleteStudentByID(ctx, 1))
}

func TestRepositoryConnectionFailure(t *testing.T) {
	cfg := config.Database{
		Driver: config.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "missing", "students.db"),
	}
	p, err := NewProvider(cfg, sqlite.Dialect{})
	require.NoError(t, err)
	repo := NewRepository(p, time.Second, nil)
	defer repo.Close()

	ctx := context.Background()

	students, err := repo.ListStudents(ctx)
	assert.ErrorIs(t, err, storage.ErrConnection)
	assert.NotNil(t, students)
	assert.Empty(t, students)

	_, err = repo.GetStudentByID(ctx, 1)
	assert.ErrorIs(t, err, storage.ErrConnection)

	err = repo.DeleteStudentByID(ctx, 1)
	assert.ErrorIs(t, err, storage.ErrConnection)

	assert.ErrorIs(t, repo.Ping(ctx), storage.ErrConnection)
}

func TestRepositoryTimeout(t *testing.T) {
	repo, _ := setupTestRepo(t)

	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	_, err := repo.ListStudents(ctx)
	assert.ErrorIs(t, err, storage.ErrTimeout)

	_, err = repo.CreateStudent(ctx, types.StudentInput{Name: "Ada", Email: "ada@example.com"})
	assert.ErrorIs(t, err, storage.ErrTimeout)

	assert.Equal(t, 0, countRows(t, repo))
}

// slowCount walks a recursive CTE long enough that only a deadline or an
// interrupt ends it.
const slowCount = `
	WITH RECURSIVE c(x) AS (SELECT 1 UNION ALL SELECT x + 1 FROM c WHERE x < 1000000000)
	SELECT count(*) FROM c`

func TestRepositoryTimeoutMidStatement(t *testing.T) {
	t.Run("Read", func(t *testing.T) {
		repo, _ := setupTestRepo(t)

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		started := false
		err := repo.withConn(ctx, "SlowRead", storage.KindQuery, func(ctx context.Context, conn *sqlx.Conn) error {
			started = true
			var n int64
			return conn.QueryRowxContext(ctx, slowCount).Scan(&n)
		})

		require.True(t, started, "deadline fired before the statement ran")
		assert.ErrorIs(t, err, storage.ErrTimeout)
		var se *storage.Error
		require.ErrorAs(t, err, &se)
		assert.Equal(t, "SlowRead", se.Op)
	})

	t.Run("WriteRolledBack", func(t *testing.T) {
		repo, _ := setupTestRepo(t)

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		inserted := false
		err := repo.withTx(ctx, "SlowWrite", func(ctx context.Context, tx *sqlx.Tx) error {
			if _, err := tx.ExecContext(ctx, tx.Rebind(insertStudent), "Ada", "ada@example.com", nil, nil); err != nil {
				return err
			}
			inserted = true

			var n int64
			return tx.QueryRowxContext(ctx, slowCount).Scan(&n)
		})

		require.True(t, inserted, "deadline fired before the insert ran")
		assert.ErrorIs(t, err, storage.ErrTimeout)
		assert.Equal(t, 0, countRows(t, repo))
	})
}

func TestRepositoryReleasesConnections(t *testing.T) {
	repo, _ := setupTestRepo(t)
	ctx := context.Background()

	created := mustCreate(t, repo, types.StudentInput{Name: "Ada", Email: "ada@example.com"})

	_, err := repo.CreateStudent(ctx, types.StudentInput{Name: "Bob", Email: "ada@example.com"})
	require.ErrorIs(t, err, storage.ErrDuplicateEmail)

	_, err = repo.CreateStudent(ctx, types.StudentInput{Email: "nameless@example.com"})
	require.ErrorIs(t, err, storage.ErrValidation)

	_, err = repo.GetStudentByID(ctx, 999)
	require.ErrorIs(t, err, storage.ErrNotFound)

	_, err = repo.UpdateStudentByID(ctx, 999, types.StudentInput{Name: "Ghost", Email: "ghost@example.com"})
	require.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, repo.DeleteStudentByID(ctx, created.ID))
	require.NoError(t, repo.DeleteStudentByID(ctx, created.ID))

	expired, cancel := context.WithDeadline(ctx, time.Now().Add(-time.Second))
	defer cancel()
	_, err = repo.ListStudents(expired)
	require.ErrorIs(t, err, storage.ErrTimeout)

	short, cancelShort := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancelShort()
	err = repo.withConn(short, "SlowRead", storage.KindQuery, func(ctx context.Context, conn *sqlx.Conn) error {
		var n int64
		return conn.QueryRowxContext(ctx, slowCount).Scan(&n)
	})
	require.ErrorIs(t, err, storage.ErrTimeout)

	stats := repo.provider.db.Stats()
	assert.Equal(t, 0, stats.OpenConnections)
	assert.Equal(t, 0, stats.InUse)
}

func TestEnsureSchemaIdempotent(t *testing.T) {
	repo, cfg := setupTestRepo(t)
	ctx := context.Background()

	mustCreate(t, repo, types.StudentInput{Name: "Ada", Email: "ada@example.com"})

	require.NoError(t, EnsureSchema(ctx, cfg, sqlite.Dialect{}))
	require.NoError(t, EnsureSchema(ctx, cfg, sqlite.Dialect{}))

	assert.Equal(t, 1, countRows(t, repo))
	require.NoError(t, repo.Ping(ctx))
}
