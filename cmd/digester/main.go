package main

import (
	"context"
	goflag "flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DataDog/datadog-go/statsd"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/curately/goodreads/app_setting"
	"github.com/curately/goodreads/digest"
	"github.com/curately/goodreads/model"
	"github.com/curately/goodreads/scheduler"
	"github.com/curately/goodreads/searchsync"
	"github.com/curately/goodreads/store"
	"github.com/curately/goodreads/utils"
	"github.com/curately/goodreads/utils/dotenv"
	Flag "github.com/curately/goodreads/utils/flag"
	Logger "github.com/curately/goodreads/utils/log"
)

var (
	AppSettingPath *string
	// Configuration to customize binary startup.
	AppSetting app_setting.DigestAppSetting
)

// init() will always be called on before the execution of main function.
func init() {
	AppSettingPath = goflag.String("app_setting_path", "cmd/digester/config.yaml", "path to digest app setting")
	if err := dotenv.LoadDotEnvs(); err != nil {
		panic(err)
	}
}

func NewDogStatsdClient() *statsd.Client {
	statsd, err := statsd.New("127.0.0.1:8125")
	if err != nil {
		panic(err)
	}
	return statsd
}

func main() {
	Flag.ParseFlags()
	Logger.InitLogger()
	AppSetting = app_setting.ParseDigestAppSetting(*AppSettingPath)

	utils.InitTracer()
	defer utils.CloseTracer()

	db, err := utils.GetDBConnection()
	if err != nil {
		Logger.Log.Fatal("fail to connect database : ", err)
	}
	utils.DatabaseSetupAndMigration(db)

	marker, err := utils.GetRedisStatusStore()
	if err != nil {
		Logger.Log.Fatal("fail to connect redis : ", err)
	}

	eventbus := gochannel.NewGoChannel(
		gochannel.Config{
			OutputChannelBuffer:            100,
			BlockPublishUntilSubscriberAck: false,
		},
		watermill.NewStdLogger(false, false),
	)
	ctx, cancel := context.WithCancel(context.Background())

	posts := store.NewPostStore(db)
	index := searchsync.NewIndex()

	deliverer := digest.NewDeliverer(
		AppSetting.DELIVERY_MAX_ATTEMPTS,
		time.Duration(AppSetting.DELIVERY_BASE_DELAY_MS)*time.Millisecond,
		time.Duration(AppSetting.DELIVERY_MAX_DELAY_MS)*time.Millisecond,
	)

	// Initialize all engine modules here.
	modules := []scheduler.Module{
		// The weekly and monthly schedules publish digest jobs onto the
		// EventBus on their own cadence.
		scheduler.NewDigestSchedule(model.DigestWeekly, scheduler.SystemClock(), eventbus),
		scheduler.NewDigestSchedule(model.DigestMonthly, scheduler.SystemClock(), eventbus),
		// The worker consumes jobs and fans them out per team.
		digest.NewWorker(
			posts,
			store.NewTeamPreferenceStore(db),
			store.NewTeamChannelStore(db),
			deliverer,
			marker,
			db,
			NewDogStatsdClient(),
			eventbus,
		),
		// The syncer purges soft deleted posts and rebuilds the index.
		searchsync.NewSyncer(posts, index,
			time.Duration(AppSetting.INDEX_SYNC_INTERVAL_SECOND)*time.Second),
	}

	engine := scheduler.NewEngine(modules, ctx, cancel, eventbus)

	// Graceful shutdown on SIGINT/SIGTERM.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		engine.Shutdown()
	}()

	Logger.Log.Info("===== Digest Pusher Started =====")
	engine.Run()
	Logger.Log.Info("===== Digest Pusher Finished =====")
}
