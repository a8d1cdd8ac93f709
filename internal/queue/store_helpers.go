package queue

import (
	"database/sql"
	"errors"
	"time"
)

const jobColumns = "id, source_path, title, status, step, source_lang, target_lang, voice, run_id, segments_json, video_duration, achieved_duration, fitted_segments, placeholder_count, audio_path, dub_track_path, caption_vtt, caption_srt, transcript_path, final_file, error_log_json, step_timestamps_json, progress_stage, progress_percent, progress_message, created_at, updated_at"

func scanJob(scanner interface{ Scan(dest ...any) error }) (*Job, error) {
	var (
		id               int64
		sourcePath       string
		title            sql.NullString
		statusStr        string
		stepStr          sql.NullString
		sourceLang       sql.NullString
		targetLang       sql.NullString
		voice            sql.NullString
		runID            sql.NullString
		segmentsJSON     sql.NullString
		videoDuration    sql.NullFloat64
		achievedDuration sql.NullFloat64
		fittedSegments   sql.NullInt64
		placeholderCount sql.NullInt64
		audioPath        sql.NullString
		dubTrackPath     sql.NullString
		captionVTT       sql.NullString
		captionSRT       sql.NullString
		transcriptPath   sql.NullString
		finalFile        sql.NullString
		errorLog         sql.NullString
		stepTimestamps   sql.NullString
		progressStage    sql.NullString
		progressPercent  sql.NullFloat64
		progressMessage  sql.NullString
		createdRaw       sql.NullString
		updatedRaw       sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&sourcePath,
		&title,
		&statusStr,
		&stepStr,
		&sourceLang,
		&targetLang,
		&voice,
		&runID,
		&segmentsJSON,
		&videoDuration,
		&achievedDuration,
		&fittedSegments,
		&placeholderCount,
		&audioPath,
		&dubTrackPath,
		&captionVTT,
		&captionSRT,
		&transcriptPath,
		&finalFile,
		&errorLog,
		&stepTimestamps,
		&progressStage,
		&progressPercent,
		&progressMessage,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	job := &Job{
		ID:                 id,
		SourcePath:         sourcePath,
		Title:              title.String,
		Status:             Status(statusStr),
		Step:               Step(stepStr.String),
		SourceLang:         sourceLang.String,
		TargetLang:         targetLang.String,
		Voice:              voice.String,
		RunID:              runID.String,
		SegmentsJSON:       segmentsJSON.String,
		VideoDuration:      videoDuration.Float64,
		AchievedDuration:   achievedDuration.Float64,
		FittedSegments:     int(fittedSegments.Int64),
		PlaceholderCount:   int(placeholderCount.Int64),
		AudioPath:          audioPath.String,
		DubTrackPath:       dubTrackPath.String,
		CaptionVTT:         captionVTT.String,
		CaptionSRT:         captionSRT.String,
		TranscriptPath:     transcriptPath.String,
		FinalFile:          finalFile.String,
		ErrorLogJSON:       errorLog.String,
		StepTimestampsJSON: stepTimestamps.String,
		ProgressStage:      progressStage.String,
		ProgressPercent:    progressPercent.Float64,
		ProgressMessage:    progressMessage.String,
	}

	if created, err := parseTimeString(createdRaw.String); err == nil {
		job.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		job.UpdatedAt = updated
	}
	return job, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
