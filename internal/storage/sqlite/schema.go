package sqlite

// schemaVersion is bumped whenever the schema below changes shape.
// New databases record it in metadata; existing databases are checked
// against it on open.
const schemaVersion = "1"

const schema = `
CREATE TABLE IF NOT EXISTS metadata (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS config (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS courses (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS skills (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL UNIQUE,
	description TEXT NOT NULL DEFAULT '',
	is_base INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS skill_courses (
	skill_id TEXT NOT NULL REFERENCES skills(id) ON DELETE CASCADE,
	course_id TEXT NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
	PRIMARY KEY (skill_id, course_id)
);

-- Directed prerequisite edges: skill_id requires prereq_id.
-- Acyclicity is enforced in code (AddPrerequisite re-checks inside its
-- transaction); the CHECK only rules out the trivial self-loop.
CREATE TABLE IF NOT EXISTS skill_prerequisites (
	skill_id TEXT NOT NULL REFERENCES skills(id) ON DELETE CASCADE,
	prereq_id TEXT NOT NULL REFERENCES skills(id) ON DELETE CASCADE,
	created_at TIMESTAMP NOT NULL,
	created_by TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (skill_id, prereq_id),
	CHECK (skill_id != prereq_id)
);
CREATE INDEX IF NOT EXISTS idx_prereqs_by_prereq ON skill_prerequisites(prereq_id);

CREATE TABLE IF NOT EXISTS tasks (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	task_type TEXT NOT NULL DEFAULT 'single',
	difficulty TEXT NOT NULL DEFAULT 'beginner',
	question_text TEXT NOT NULL,
	correct_answer TEXT NOT NULL DEFAULT '',
	explanation TEXT NOT NULL DEFAULT '',
	is_active INTEGER NOT NULL DEFAULT 1,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS task_answers (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	task_id TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
	text TEXT NOT NULL,
	is_correct INTEGER NOT NULL DEFAULT 0,
	position INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_answers_by_task ON task_answers(task_id);

CREATE TABLE IF NOT EXISTS task_skills (
	task_id TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
	skill_id TEXT NOT NULL REFERENCES skills(id) ON DELETE CASCADE,
	PRIMARY KEY (task_id, skill_id)
);
CREATE INDEX IF NOT EXISTS idx_task_skills_by_skill ON task_skills(skill_id);

CREATE TABLE IF NOT EXISTS task_courses (
	task_id TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
	course_id TEXT NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
	PRIMARY KEY (task_id, course_id)
);

CREATE TABLE IF NOT EXISTS students (
	id TEXT PRIMARY KEY,
	username TEXT NOT NULL UNIQUE,
	full_name TEXT NOT NULL,
	email TEXT NOT NULL DEFAULT '',
	organization TEXT NOT NULL DEFAULT '',
	is_active INTEGER NOT NULL DEFAULT 1,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS enrollments (
	student_id TEXT NOT NULL REFERENCES students(id) ON DELETE CASCADE,
	course_id TEXT NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
	status TEXT NOT NULL DEFAULT 'enrolled',
	progress_percent INTEGER NOT NULL DEFAULT 0,
	final_grade REAL,
	enrolled_at TIMESTAMP NOT NULL,
	completed_at TIMESTAMP,
	PRIMARY KEY (student_id, course_id)
);

CREATE TABLE IF NOT EXISTS skill_masteries (
	student_id TEXT NOT NULL REFERENCES students(id) ON DELETE CASCADE,
	skill_id TEXT NOT NULL REFERENCES skills(id) ON DELETE CASCADE,
	initial_prob REAL NOT NULL,
	current_prob REAL NOT NULL,
	transition_prob REAL NOT NULL,
	guess_prob REAL NOT NULL,
	slip_prob REAL NOT NULL,
	attempts_count INTEGER NOT NULL DEFAULT 0,
	correct_attempts INTEGER NOT NULL DEFAULT 0,
	updated_at TIMESTAMP NOT NULL,
	PRIMARY KEY (student_id, skill_id)
);

CREATE TABLE IF NOT EXISTS task_attempts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	student_id TEXT NOT NULL REFERENCES students(id) ON DELETE CASCADE,
	task_id TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
	is_correct INTEGER NOT NULL,
	given_answer TEXT NOT NULL DEFAULT '',
	correct_answer TEXT NOT NULL DEFAULT '',
	started_at TIMESTAMP NOT NULL,
	completed_at TIMESTAMP NOT NULL,
	time_spent_sec INTEGER NOT NULL DEFAULT 0,
	metadata TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_attempts_by_student ON task_attempts(student_id, completed_at);
CREATE INDEX IF NOT EXISTS idx_attempts_by_task ON task_attempts(task_id);

-- attempt_id is UNIQUE: one recommendation holds at most one attempt, and an
-- attempt is claimed by at most one recommendation.
CREATE TABLE IF NOT EXISTS recommendations (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	student_id TEXT NOT NULL REFERENCES students(id) ON DELETE CASCADE,
	task_id TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
	q_value REAL NOT NULL DEFAULT 0,
	confidence REAL NOT NULL DEFAULT 0,
	reason TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL,
	is_active INTEGER NOT NULL DEFAULT 0,
	state_snapshot TEXT NOT NULL DEFAULT '',
	prereq_snapshots TEXT NOT NULL DEFAULT '',
	dependent_snapshots TEXT NOT NULL DEFAULT '',
	attempt_id INTEGER UNIQUE REFERENCES task_attempts(id) ON DELETE SET NULL
);
CREATE INDEX IF NOT EXISTS idx_recs_by_student ON recommendations(student_id, created_at);

CREATE TABLE IF NOT EXISTS current_recommendations (
	student_id TEXT PRIMARY KEY REFERENCES students(id) ON DELETE CASCADE,
	recommendation_id INTEGER NOT NULL REFERENCES recommendations(id) ON DELETE CASCADE,
	set_at TIMESTAMP NOT NULL,
	times_viewed INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS expert_feedback (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	recommendation_id INTEGER NOT NULL REFERENCES recommendations(id) ON DELETE CASCADE,
	expert TEXT NOT NULL,
	feedback_type TEXT NOT NULL,
	strength TEXT NOT NULL,
	reward REAL NOT NULL,
	comment TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL,
	used_for_training INTEGER NOT NULL DEFAULT 0,
	UNIQUE (recommendation_id, expert)
);
CREATE INDEX IF NOT EXISTS idx_feedback_unused ON expert_feedback(used_for_training);

CREATE TABLE IF NOT EXISTS training_sessions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	learning_rate REAL NOT NULL DEFAULT 0.001,
	batch_size INTEGER NOT NULL DEFAULT 32,
	epochs INTEGER NOT NULL DEFAULT 10,
	feedback_count INTEGER NOT NULL DEFAULT 0,
	status TEXT NOT NULL DEFAULT 'pending',
	started_at TIMESTAMP,
	completed_at TIMESTAMP,
	initial_loss REAL,
	final_loss REAL,
	history TEXT NOT NULL DEFAULT '',
	model_path TEXT NOT NULL DEFAULT '',
	error_message TEXT NOT NULL DEFAULT '',
	created_by TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL
);
`
