package graph

import (
	"Lumen/internal/api/config"
	"context"
	"fmt"
	log "log/slog"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// NewDriver 创建 neo4j 驱动并检查连通性
func NewDriver(cfg config.Neo4jConfig) (neo4j.DriverWithContext, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err = driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(context.Background())
		return nil, fmt.Errorf("neo4j connectivity check failed: %w", err)
	}

	log.Info("Neo4j initialized successfully", "uri", cfg.URI)
	return driver, nil
}

type Neo4jRepo struct {
	driver   neo4j.DriverWithContext
	database string
}

func NewNeo4jRepo(driver neo4j.DriverWithContext, database string) Repo {
	return &Neo4jRepo{driver: driver, database: database}
}

func (s *Neo4jRepo) write(ctx context.Context, query string, params map[string]any) error {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite, DatabaseName: s.database})
	defer func() {
		_ = session.Close(ctx)
	}()

	start := time.Now()
	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		return res.Consume(ctx)
	})
	s.trace(ctx, "write", start, err)
	return err
}

// read 在只读事务中执行查询并收集全部记录
func (s *Neo4jRepo) read(ctx context.Context, query string, params map[string]any) ([]*neo4j.Record, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead, DatabaseName: s.database})
	defer func() {
		_ = session.Close(ctx)
	}()

	start := time.Now()
	out, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	s.trace(ctx, "read", start, err)
	if err != nil {
		return nil, err
	}
	return out.([]*neo4j.Record), nil
}

func (s *Neo4jRepo) trace(ctx context.Context, mode string, start time.Time, err error) {
	elapsed := time.Since(start)
	switch {
	case err != nil:
		log.ErrorContext(ctx, "Neo4j Error", "mode", mode, "latency", elapsed, "err", err)
	case elapsed > 300*time.Millisecond:
		log.WarnContext(ctx, "Neo4j Slow", "mode", mode, "latency", elapsed)
	}
}

// EnsureSchema 创建唯一约束，同时生成按 id 查找的索引
func (s *Neo4jRepo) EnsureSchema(ctx context.Context) error {
	for _, q := range []string{
		`CREATE CONSTRAINT user_id_unique IF NOT EXISTS FOR (u:User) REQUIRE u.id IS UNIQUE`,
		`CREATE CONSTRAINT content_id_unique IF NOT EXISTS FOR (c:Content) REQUIRE c.id IS UNIQUE`,
	} {
		if err := s.write(ctx, q, nil); err != nil {
			return err
		}
	}
	return nil
}

func (s *Neo4jRepo) UpsertFollow(ctx context.Context, followerID, followedID uint64) error {
	return s.write(ctx, `
		MERGE (a:User {id: $followerId})
		MERGE (b:User {id: $followedId})
		MERGE (a)-[r:FOLLOWS]->(b)
		ON CREATE SET r.createdAt = datetime()
	`, map[string]any{"followerId": int64(followerID), "followedId": int64(followedID)})
}

func (s *Neo4jRepo) RemoveFollow(ctx context.Context, followerID, followedID uint64) error {
	return s.write(ctx, `
		MATCH (:User {id: $followerId})-[r:FOLLOWS]->(:User {id: $followedId})
		DELETE r
	`, map[string]any{"followerId": int64(followerID), "followedId": int64(followedID)})
}

func (s *Neo4jRepo) UpsertLike(ctx context.Context, userID uint64, contentID string) error {
	return s.write(ctx, `
		MERGE (u:User {id: $userId})
		MERGE (c:Content {id: $contentId})
		MERGE (u)-[r:LIKED]->(c)
		ON CREATE SET r.createdAt = datetime()
	`, map[string]any{"userId": int64(userID), "contentId": contentID})
}

func (s *Neo4jRepo) RemoveLike(ctx context.Context, userID uint64, contentID string) error {
	return s.write(ctx, `
		MATCH (:User {id: $userId})-[r:LIKED]->(:Content {id: $contentId})
		DELETE r
	`, map[string]any{"userId": int64(userID), "contentId": contentID})
}

func (s *Neo4jRepo) UpsertContent(ctx context.Context, contentID string, authorID uint64, createdAt time.Time) error {
	return s.write(ctx, `
		MERGE (c:Content {id: $contentId})
		SET c.createdAt = datetime($createdAt), c.authorId = $authorId
	`, map[string]any{
		"contentId": contentID,
		"authorId":  int64(authorID),
		"createdAt": createdAt.UTC().Format(time.RFC3339Nano),
	})
}

func (s *Neo4jRepo) RemoveContent(ctx context.Context, contentID string) error {
	return s.write(ctx, `MATCH (c:Content {id: $contentId}) DETACH DELETE c`,
		map[string]any{"contentId": contentID})
}

func (s *Neo4jRepo) ListFollowing(ctx context.Context, userID uint64) ([]uint64, error) {
	records, err := s.read(ctx, `
		MATCH (:User {id: $userId})-[:FOLLOWS]->(f:User)
		RETURN f.id AS id
	`, map[string]any{"userId": int64(userID)})
	if err != nil {
		return nil, err
	}
	return collectUserIDs(records)
}

func (s *Neo4jRepo) ListLikers(ctx context.Context, contentID string) ([]uint64, error) {
	records, err := s.read(ctx, `
		MATCH (u:User)-[:LIKED]->(:Content {id: $contentId})
		RETURN u.id AS id
	`, map[string]any{"contentId": contentID})
	if err != nil {
		return nil, err
	}
	return collectUserIDs(records)
}

func (s *Neo4jRepo) CountFollowers(ctx context.Context, userID uint64) (int64, error) {
	return s.count(ctx, `
		OPTIONAL MATCH (f:User)-[:FOLLOWS]->(:User {id: $userId})
		RETURN count(f) AS n
	`, userID)
}

func (s *Neo4jRepo) CountFollowing(ctx context.Context, userID uint64) (int64, error) {
	return s.count(ctx, `
		OPTIONAL MATCH (:User {id: $userId})-[:FOLLOWS]->(f:User)
		RETURN count(f) AS n
	`, userID)
}

func (s *Neo4jRepo) count(ctx context.Context, query string, userID uint64) (int64, error) {
	records, err := s.read(ctx, query, map[string]any{"userId": int64(userID)})
	if err != nil || len(records) == 0 {
		return 0, err
	}
	n, _, err := neo4j.GetRecordValue[int64](records[0], "n")
	return n, err
}

func (s *Neo4jRepo) FollowExists(ctx context.Context, followerID, followedID uint64) (bool, error) {
	records, err := s.read(ctx, `
		MATCH (:User {id: $followerId})-[r:FOLLOWS]->(:User {id: $followedId})
		RETURN count(r) > 0 AS exists
	`, map[string]any{"followerId": int64(followerID), "followedId": int64(followedID)})
	if err != nil || len(records) == 0 {
		return false, err
	}
	exists, _, err := neo4j.GetRecordValue[bool](records[0], "exists")
	return exists, err
}

// scoreCandidatesCypher 时钟偏差导致的负年龄按 0 计
const scoreCandidatesCypher = `
	MATCH (me:User {id: $userId})-[:LIKED]->(:Content)<-[:LIKED]-(other:User)
	WHERE other.id <> $userId
	MATCH (other)-[:LIKED]->(rec:Content)
	WHERE NOT (me)-[:LIKED]->(rec)
	WITH rec, count(DISTINCT other) AS coLikers
	WITH rec, coLikers,
	     duration.inSeconds(coalesce(rec.createdAt, datetime() - duration({seconds: $fallbackAge})), datetime()).seconds AS rawAge
	WITH rec, coLikers, CASE WHEN rawAge < 0 THEN 0 ELSE rawAge END AS ageSeconds
	WITH rec, coLikers, ageSeconds, coLikers * exp(-$lambda * ageSeconds) AS score
	RETURN rec.id AS id, coLikers, ageSeconds, score
	ORDER BY score DESC, id ASC
	SKIP $skip LIMIT $limit
`

func (s *Neo4jRepo) ScoreCandidates(ctx context.Context, userID uint64, q ScoreQuery) ([]ScoredContent, error) {
	if q.Limit <= 0 {
		return nil, nil
	}
	lambda := q.Lambda
	if lambda <= 0 {
		lambda = DefaultLambda
	}

	records, err := s.read(ctx, scoreCandidatesCypher, map[string]any{
		"userId":      int64(userID),
		"lambda":      lambda,
		"fallbackAge": int64(q.FallbackAge.Seconds()),
		"skip":        int64(q.Skip),
		"limit":       int64(q.Limit),
	})
	if err != nil {
		return nil, err
	}

	out := make([]ScoredContent, 0, len(records))
	for _, rec := range records {
		id, _, err := neo4j.GetRecordValue[string](rec, "id")
		if err != nil {
			return nil, err
		}
		coLikers, _, _ := neo4j.GetRecordValue[int64](rec, "coLikers")
		age, _, _ := neo4j.GetRecordValue[int64](rec, "ageSeconds")
		score, _, _ := neo4j.GetRecordValue[float64](rec, "score")
		out = append(out, ScoredContent{ContentID: id, CoLikers: coLikers, AgeSeconds: float64(age), Score: score})
	}
	return out, nil
}

func collectUserIDs(records []*neo4j.Record) ([]uint64, error) {
	ids := make([]uint64, 0, len(records))
	for _, rec := range records {
		id, _, err := neo4j.GetRecordValue[int64](rec, "id")
		if err != nil {
			return nil, err
		}
		ids = append(ids, uint64(id))
	}
	return ids, nil
}
