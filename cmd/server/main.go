package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	gintrace "gopkg.in/DataDog/dd-trace-go.v1/contrib/gin-gonic/gin"

	"github.com/curately/goodreads/bot"
	"github.com/curately/goodreads/preview"
	"github.com/curately/goodreads/searchsync"
	"github.com/curately/goodreads/server"
	"github.com/curately/goodreads/server/middlewares"
	"github.com/curately/goodreads/store"
	"github.com/curately/goodreads/utils"
	"github.com/curately/goodreads/utils/dotenv"
	Flag "github.com/curately/goodreads/utils/flag"
	Logger "github.com/curately/goodreads/utils/log"
	"github.com/curately/goodreads/votes"
)

const (
	refreshQueueName = "goodreads_index_refresh_queue"
	refreshBatchSize = 10
)

func cleanup() {
	utils.CloseProfiler()
	utils.CloseTracer()
	Logger.Log.Info("api server shutdown")
}

func main() {
	Flag.ParseFlags()
	Logger.InitLogger()
	defer cleanup()

	if err := dotenv.LoadDotEnvs(); err != nil {
		panic(err)
	}

	utils.InitTracer()
	utils.InitProfiler()

	if !Flag.ByPassAuth {
		middlewares.Setup()
	}

	db, err := utils.GetDBConnection()
	if err != nil {
		Logger.Log.Fatal("fail to connect database : ", err)
	}
	utils.DatabaseSetupAndMigration(db)

	posts := store.NewPostStore(db)
	bookmarks := store.NewBookmarkStore(db)
	prefs := store.NewTeamPreferenceStore(db)

	// Discover and search reads are served off this in-memory snapshot.
	// The 12h syncer purges soft deleted rows and rebuilds it wholesale;
	// in between, local write handlers update it in place and the queue
	// consumer below folds in writes from the other replicas.
	index := searchsync.NewIndex()
	syncer := searchsync.NewSyncer(posts, index, searchsync.DefaultSyncInterval)
	ctx := context.Background()
	go syncer.RunModule(ctx)

	queue, err := utils.NewSQSMessageQueue(refreshQueueName, 20)
	if err != nil {
		Logger.Log.Fatal("fail to initialize SQS refresh queue : ", err)
	}
	refresher := searchsync.NewQueueRefresher(queue)

	consumer := searchsync.NewRefreshConsumer(queue, posts, index)
	go func() {
		for {
			consumer.ReadAndProcessMessages(ctx, refreshBatchSize)

			// Protective delay
			time.Sleep(2 * time.Second)
		}
	}()

	savedStatus, err := utils.GetRedisStatusStore()
	if err != nil {
		Logger.Log.Fatal("fail to connect redis : ", err)
	}

	ledger := votes.NewLedger(posts, store.NewVoteStore(db), refresher)
	handlers := server.NewHandlers(posts, bookmarks, prefs, ledger, index, refresher, preview.NewFetcher(), savedStatus)

	// Default With the Logger and Recovery middleware already attached
	router := gin.Default()
	router.Use(cors.Default())
	router.Use(gintrace.Middleware(Flag.ServiceName))

	// The Bot Framework lifecycle endpoint authenticates differently and
	// must stay outside the user JWT middleware.
	lifecycle := bot.NewLifecycleHandler(store.NewTeamChannelStore(db), prefs)
	lifecycle.RegisterRoutes(router)

	api := router.Group("/")
	if !Flag.ByPassAuth {
		api.Use(middlewares.JWT())
	}
	handlers.RegisterRoutes(api)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
			"time":    time.Now().UTC(),
		})
	})

	Logger.Log.Info("api server starts up")
	router.Run(":8080")
}
