package api

import (
	"github.com/lexhub/news-pipeline/app/database"
	"github.com/lexhub/news-pipeline/app/news"
	"github.com/lexhub/news-pipeline/app/pipeline"
)

type Handler struct {
	articleRepo database.ArticleRepository
	settingRepo database.SettingRepository
	configCache *news.ConfigCache
	scheduler   pipeline.TaskSchedulerInterface
	version     string
}
