package db

import (
	"fmt"
	"time"

	"github.com/gocql/gocql"

	"custody/config"
)

// cqlSession is the slice of a cassandra session used while bootstrapping the schema.
type cqlSession interface {
	exec(stmt string) error
	Close()
}

type gocqlSession struct {
	*gocql.Session
}

func (s gocqlSession) exec(stmt string) error {
	return s.Query(stmt).Exec()
}

func NewCassandraSession(cfg config.DB) (*gocql.Session, error) {
	clusterConfig := gocql.NewCluster(cfg.Host)
	clusterConfig.Authenticator = gocql.PasswordAuthenticator{
		Username: cfg.Username,
		Password: cfg.Password,
	}
	clusterConfig.Consistency = gocql.Quorum
	clusterConfig.ConnectTimeout = time.Second * 10

	open := func() (cqlSession, error) {
		session, err := clusterConfig.CreateSession()
		if err != nil {
			return nil, err
		}
		return gocqlSession{session}, nil
	}
	if err := createKeyspace(open, cfg.Keyspace); err != nil {
		return nil, err
	}

	clusterConfig.Keyspace = cfg.Keyspace
	session, err := clusterConfig.CreateSession()
	if err != nil {
		return nil, err
	}

	if err = createTables(gocqlSession{session}, cfg.Keyspace); err != nil {
		session.Close()
		return nil, err
	}

	return session, nil
}

func keyspaceCQL(keyspace string) string {
	return `CREATE KEYSPACE IF NOT EXISTS ` + keyspace +
		` WITH REPLICATION = {'class' : 'SimpleStrategy', 'replication_factor' : 1}`
}

// createKeyspace runs on a keyspace-less session that is always closed before
// returning.
func createKeyspace(open func() (cqlSession, error), keyspace string) error {
	session, err := open()
	if err != nil {
		return err
	}
	defer session.Close()

	if err = session.exec(keyspaceCQL(keyspace)); err != nil {
		return fmt.Errorf("failed to create keyspace %s: %w", keyspace, err)
	}

	return nil
}

func createTables(session cqlSession, keyspace string) error {
	for _, table := range dbTableSchemas {
		createTableCmd := fmt.Sprintf(table, keyspace)
		if err := session.exec(createTableCmd); err != nil {
			return fmt.Errorf("failed to exec query for db table creation, CMD: %s: %w", createTableCmd, err)
		}
	}

	return nil
}
