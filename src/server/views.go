package server

import (
	"bufio"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"grid-observer/src/changelog"
	"grid-observer/src/models"

	"github.com/gin-gonic/gin"
)

// -----------------------------------------------------------------------------
// Changelog view handlers
//
// These read the JSONL changelog files on demand. The files are the source
// of truth, the handlers never depend on engine state, so queries work even
// across engine restarts.
// -----------------------------------------------------------------------------

func (s *QueryServer) viewPath(view string) string {
	return filepath.Join(s.Config.Storage.OutputDir, view+".jsonl")
}

// -----------------------------------------------------------------------------

// readLatest returns the live rows among the last maxLines changelog lines
// of a view (retractions excluded).
func (s *QueryServer) readLatest(view string, maxLines int) []map[string]interface{} {
	lines, err := changelog.ReadLines(s.viewPath(view))
	if err != nil {
		s.Logger.Warning("Failed to read view %s: %v", view, err)
		return []map[string]interface{}{}
	}

	if len(lines) > maxLines {
		lines = lines[len(lines)-maxLines:]
	}

	results := make([]map[string]interface{}, 0, len(lines))
	for _, line := range lines {
		if diff, ok := line["diff"].(float64); ok && diff <= 0 {
			continue
		}
		results = append(results, line)
	}
	return results
}

// -----------------------------------------------------------------------------

func parseLimit(c *gin.Context, fallback int) int {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(fallback)))
	if err != nil || limit <= 0 {
		return fallback
	}
	return limit
}

// -----------------------------------------------------------------------------

func (s *QueryServer) getAnomalies(c *gin.Context) {
	anomalies := s.readLatest(models.ViewAnomalies, parseLimit(c, 50))
	c.JSON(200, gin.H{
		"count":     len(anomalies),
		"anomalies": anomalies,
	})
}

// -----------------------------------------------------------------------------

func (s *QueryServer) getStatistics(c *gin.Context) {
	c.JSON(200, s.statisticsPayload())
}

func (s *QueryServer) statisticsPayload() gin.H {
	if s.liveCache != nil {
		if stats, err := s.liveCache.GetAllStats(); err == nil && len(stats) > 0 {
			types := make([]string, 0, len(stats))
			for deviceType := range stats {
				types = append(types, deviceType)
			}
			sort.Strings(types)
			return gin.H{
				"device_types": types,
				"statistics":   stats,
			}
		}
	}

	rows, err := changelog.ReplayFile(
		s.viewPath(models.ViewDeviceStats),
		changelog.KeyFieldFor(models.ViewDeviceStats),
	)
	if err != nil {
		s.Logger.Warning("Failed to replay device stats: %v", err)
	}

	latest := make(map[string]map[string]interface{})
	types := make([]string, 0, len(rows))
	for _, row := range rows {
		deviceType, ok := row["device_type"].(string)
		if !ok || deviceType == "" {
			continue
		}
		if _, seen := latest[deviceType]; !seen {
			types = append(types, deviceType)
		}
		latest[deviceType] = row
	}

	return gin.H{
		"device_types": types,
		"statistics":   latest,
	}
}

// -----------------------------------------------------------------------------

func (s *QueryServer) getRecommendations(c *gin.Context) {
	recommendations := s.readLatest(models.ViewRecommendations, parseLimit(c, 50))
	c.JSON(200, gin.H{
		"count":           len(recommendations),
		"recommendations": recommendations,
	})
}

// -----------------------------------------------------------------------------

func (s *QueryServer) getTotalPower(c *gin.Context) {
	data := s.readLatest(models.ViewTotalPower, parseLimit(c, 100))
	c.JSON(200, gin.H{
		"count": len(data),
		"data":  data,
	})
}

// -----------------------------------------------------------------------------

func (s *QueryServer) getStatus(c *gin.Context) {
	c.JSON(200, s.statusPayload())
}

func (s *QueryServer) statusPayload() gin.H {
	filesInfo := make(map[string]interface{})
	active := false

	for _, view := range models.AllViews {
		path := s.viewPath(view)
		stat, err := os.Stat(path)
		if err != nil {
			filesInfo[view+".jsonl"] = gin.H{"exists": false}
			continue
		}

		active = true
		filesInfo[view+".jsonl"] = gin.H{
			"exists":        true,
			"size_bytes":    stat.Size(),
			"last_modified": stat.ModTime().Unix(),
			"line_count":    countLines(path),
		}
	}

	message := "Engine is running"
	if !active {
		message = "No changelog output detected. Start the engine."
	}

	return gin.H{
		"pathway_active":   active,
		"output_directory": s.Config.Storage.OutputDir,
		"files":            filesInfo,
		"message":          message,
	}
}

// -----------------------------------------------------------------------------

func (s *QueryServer) getSummary(c *gin.Context) {
	c.JSON(200, gin.H{
		"anomalies":  s.summaryAnomalies(),
		"statistics": s.statisticsPayload()["statistics"],
		"recommendations": gin.H{
			"latest": s.readLatest(models.ViewRecommendations, 5),
		},
		"status": s.statusPayload(),
	})
}

func (s *QueryServer) summaryAnomalies() gin.H {
	if s.liveCache != nil {
		if recent, err := s.liveCache.GetRecentAnomalies(20); err == nil && len(recent) > 0 {
			latest := recent
			if len(latest) > 5 {
				latest = latest[:5]
			}
			return gin.H{
				"recent_count": len(recent),
				"latest":       latest,
			}
		}
	}

	return gin.H{
		"recent_count": len(s.readLatest(models.ViewAnomalies, 20)),
		"latest":       s.readLatest(models.ViewAnomalies, 5),
	}
}

// -----------------------------------------------------------------------------

func countLines(path string) int {
	f, err := os.Open(path)
	if err != nil {
		return 0
	}
	defer f.Close()

	count := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		count++
	}
	return count
}
