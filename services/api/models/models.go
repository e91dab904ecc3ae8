// Copyright (C) 2025 FocusFlow Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package models

// All returns every model in migration order (referenced tables first).
func All() []any {
	return []any{
		&User{},
		&Playlist{},
		&Track{},
		&Task{},
		&Subtask{},
		&TaskTemplate{},
		&Note{},
		&Chat{},
		&ChatMember{},
		&Message{},
		&FocusSession{},
		&FocusTree{},
		&FocusSettings{},
		&Achievement{},
		&MoodEntry{},
		&GratitudeEntry{},
		&MemoryGameScore{},
		&YandexDiskToken{},
		&CloudFile{},
	}
}
