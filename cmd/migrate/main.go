package main

import (
	"database/sql"
	"flag"
	"log"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"event-booking-server/config"
)

// statements are idempotent and bring databases created before the
// coordinate columns existed up to date.
var statements = []struct {
	name string
	sql  string
}{
	{"bookings.latitude", `ALTER TABLE bookings ADD COLUMN IF NOT EXISTS latitude DOUBLE PRECISION`},
	{"bookings.longitude", `ALTER TABLE bookings ADD COLUMN IF NOT EXISTS longitude DOUBLE PRECISION`},
	{"idx_bookings_status", `CREATE INDEX IF NOT EXISTS idx_bookings_status ON bookings (status)`},
	{"idx_notifications_read_created", `CREATE INDEX IF NOT EXISTS idx_notifications_read_created ON notifications (read, created_at)`},
}

func main() {
	promote := flag.String("promote", "", "username to grant the admin role")
	flag.Parse()

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	db, err := sql.Open("postgres", config.DatabaseFromEnv().DSN())
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database:", err)
	}
	log.Println("✅ Successfully connected to database")

	for _, st := range statements {
		if _, err := db.Exec(st.sql); err != nil {
			log.Fatalf("❌ Migration %s failed: %v", st.name, err)
		}
		log.Printf("✅ Applied %s", st.name)
	}

	if *promote != "" {
		res, err := db.Exec(`UPDATE users SET role = 'admin', updated_at = NOW() WHERE username = $1`, *promote)
		if err != nil {
			log.Fatalf("❌ Failed to promote %s: %v", *promote, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			log.Fatalf("❌ User %s not found", *promote)
		}
		log.Printf("🎉 %s is now an admin", *promote)
	}
}
