package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/inkpost/blog/config"
	"github.com/inkpost/blog/database"
	"github.com/inkpost/blog/logger"
	"github.com/inkpost/blog/web"
	"github.com/inkpost/blog/web/service"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func initLogger() {
	level, err := logger.ParseLevel(config.GetLogLevel())
	if err != nil {
		log.Fatal(err)
	}
	logger.InitLogger(level)
}

func runWebServer() {
	log.Printf("%v %v", config.GetName(), config.GetVersion())
	initLogger()
	defer logger.CloseLogger()

	err := database.InitDB(config.GetDatabaseConfig())
	if err != nil {
		log.Fatal(err)
	}

	server := web.NewServer(database.GetDB())
	err = server.Start()
	if err != nil {
		log.Println(err)
		return
	}

	sigCh := make(chan os.Signal, 1)
	// Trap shutdown signals
	signal.Notify(sigCh, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)
	for {
		sig := <-sigCh

		switch sig {
		case syscall.SIGHUP:
			logger.Info("Received SIGHUP signal. Restarting server...")

			err := server.Stop()
			if err != nil {
				logger.Debug("Error stopping web server:", err)
			}

			server = web.NewServer(database.GetDB())
			err = server.Start()
			if err != nil {
				log.Println("Error restarting web server:", err)
				return
			}
			log.Println("Web server restarted successfully.")
		default:
			logger.Info("Shutting down...")
			if err := server.Stop(); err != nil {
				logger.Warning("Error stopping web server:", err)
			}
			if err := database.CloseDB(); err != nil {
				logger.Warning("Error closing database:", err)
			}
			return
		}
	}
}

func migrateDb() {
	initLogger()
	cfg := config.GetDatabaseConfig()
	if err := database.InitDB(cfg); err != nil {
		log.Fatal(err)
	}
	defer database.CloseDB()
	fmt.Printf("schema up to date (%s)\n", cfg.Type)
}

func showSetting() {
	db := config.GetDatabaseConfig()
	mail := config.GetMailConfig()

	fmt.Println("name:", config.GetName(), config.GetVersion())
	fmt.Println("listen:", config.GetListenAddr())
	fmt.Println("log level:", config.GetLogLevel())
	fmt.Println("database:", db.Type)
	if db.IsSQLite() {
		fmt.Println("sqlite path:", db.SQLite.Path)
	} else {
		fmt.Printf("postgres: %s@%s:%d/%s\n", db.Postgres.Username, db.Postgres.Host, db.Postgres.Port, db.Postgres.Database)
	}
	fmt.Println("session max age:", config.GetSessionMaxAge())
	fmt.Println("rate limit (per minute):", config.GetRateLimit())
	fmt.Println("metrics:", config.IsMetricsEnabled())
	fmt.Println("smtp configured:", mail.HasSMTP(), "host:", fmt.Sprintf("%s:%d", mail.Host, mail.Port))
	fmt.Println("telegram configured:", mail.HasTelegram())
}

func showStats() {
	if err := database.InitDB(config.GetDatabaseConfig()); err != nil {
		log.Fatal(err)
	}
	defer database.CloseDB()

	users, err := service.NewUserService(database.GetDB()).CountUsers()
	if err != nil {
		log.Fatal(err)
	}
	posts, err := service.NewPostService(database.GetDB()).CountPosts()
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("users:", users)
	fmt.Println("posts:", posts)
}

func main() {
	var envFile string

	var rootCmd = &cobra.Command{
		Use:   "inkpost",
		Short: "A small multi-user blog",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
				log.Println("could not load env file:", err)
			}
		},
		Run: func(cmd *cobra.Command, args []string) {
			runWebServer()
		},
	}
	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "env file to load before reading configuration")

	var runCmd = &cobra.Command{
		Use:   "run",
		Short: "Run the web server",
		Run: func(cmd *cobra.Command, args []string) {
			runWebServer()
		},
	}

	var migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the database schema",
		Run: func(cmd *cobra.Command, args []string) {
			migrateDb()
		},
	}

	var settingCmd = &cobra.Command{
		Use:   "setting",
		Short: "Inspect settings",
	}

	var showCmd = &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Run: func(cmd *cobra.Command, args []string) {
			showSetting()
		},
	}

	var statsCmd = &cobra.Command{
		Use:   "stats",
		Short: "Show user and post counts",
		Run: func(cmd *cobra.Command, args []string) {
			showStats()
		},
	}

	settingCmd.AddCommand(showCmd)
	rootCmd.AddCommand(runCmd, migrateCmd, settingCmd, statsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
