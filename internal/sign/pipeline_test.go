package sign

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/at-ishikawa/glossa/internal/inference"
	mock_dictionary "github.com/at-ishikawa/glossa/internal/mocks/dictionary"
	mock_inference "github.com/at-ishikawa/glossa/internal/mocks/inference"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestPipeline_Resolve(t *testing.T) {
	clips := newClipStore(t,
		"dog.mp4", "question.mp4", "my.mp4", "name.mp4", "brand-sign.mp4",
		"b.mp4", "r.mp4", "a.mp4", "n.mp4", "d.mp4",
		"bat-club.mp4", "bat-animal.mp4", "where-are-you.mp4", "you.mp4",
	)
	repo := newRepository(t,
		entry([]string{"dog"}, sense("animal", "dog.mp4")),
		entry([]string{"?"}, sense("question", "question.mp4")),
		entry([]string{"my"}, sense("possessive", "my.mp4")),
		entry([]string{"name"}, sense("what one is called", "name.mp4")),
		entry([]string{"brand"}, sense("a product name", "brand-sign.mp4")),
		entry([]string{"b"}, sense("letter b", "b.mp4")),
		entry([]string{"r"}, sense("letter r", "r.mp4")),
		entry([]string{"a"}, sense("letter a", "a.mp4")),
		entry([]string{"n"}, sense("letter n", "n.mp4")),
		entry([]string{"d"}, sense("letter d", "d.mp4")),
		entry([]string{"bat"}, sense("a club used in sports", "bat-club.mp4"), sense("a flying mammal", "bat-animal.mp4")),
		entry([]string{"where-are-you"}, sense("asking for location", "where-are-you.mp4")),
		entry([]string{"you"}, sense("second person", "you.mp4")),
		entry([]string{"empty"}),
		entry([]string{"lost"}, sense("first sense without a clip", "lost-1.mp4"), sense("second sense", "dog.mp4")),
	)
	signed := func(token, clip string) ResolvedSegment {
		return ResolvedSegment{Token: token, ClipPath: filepath.Join(clips.Dir(), clip), Route: RouteSign}
	}
	spelled := func(char string) ResolvedSegment {
		return ResolvedSegment{Token: char, ClipPath: filepath.Join(clips.Dir(), char+".mp4"), Route: RouteFingerspell}
	}
	noProperNouns := func(client *mock_inference.MockClient) {
		client.EXPECT().FindProperNouns(gomock.Any(), gomock.Any()).Return("[]", nil)
	}

	tests := []struct {
		name      string
		gloss     string
		sentence  string
		setupMock func(client *mock_inference.MockClient)
		want      []ResolvedSegment
	}{
		{
			name:      "question mark is signed on its own",
			gloss:     "DOG ?",
			sentence:  "Is that a dog?",
			setupMock: noProperNouns,
			want:      []ResolvedSegment{signed("dog", "dog.mp4"), signed("?", "question.mp4")},
		},
		{
			name:     "proper noun is fingerspelled even with a dictionary entry",
			gloss:    "MY NAME BRAND",
			sentence: "My name is Brand.",
			setupMock: func(client *mock_inference.MockClient) {
				client.EXPECT().
					FindProperNouns(gomock.Any(), inference.FindProperNounsRequest{Gloss: "MY NAME BRAND", Sentence: "My name is Brand."}).
					Return(`["BRAND"]`, nil)
			},
			want: []ResolvedSegment{
				signed("my", "my.mp4"),
				signed("name", "name.mp4"),
				spelled("b"), spelled("r"), spelled("a"), spelled("n"), spelled("d"),
			},
		},
		{
			name:      "unknown word is fingerspelled",
			gloss:     "DARN",
			sentence:  "",
			setupMock: noProperNouns,
			want:      []ResolvedSegment{spelled("d"), spelled("a"), spelled("r"), spelled("n")},
		},
		{
			name:     "polysemous word asks the oracle with the sentence",
			gloss:    "BAT FLY",
			sentence: "The bat flew out of the cave.",
			setupMock: func(client *mock_inference.MockClient) {
				noProperNouns(client)
				client.EXPECT().
					ChooseSense(gomock.Any(), inference.ChooseSenseRequest{
						Word:     "bat",
						Sentence: "The bat flew out of the cave.",
						Meanings: []string{"a club used in sports", "a flying mammal"},
					}).
					Return("2", nil)
			},
			want: []ResolvedSegment{signed("bat", "bat-animal.mp4")},
		},
		{
			name:      "polysemous word without context takes the first sense",
			gloss:     "BAT",
			sentence:  "",
			setupMock: noProperNouns,
			want:      []ResolvedSegment{signed("bat", "bat-club.mp4")},
		},
		{
			name:      "known compound is signed whole",
			gloss:     "WHERE-ARE-YOU?",
			setupMock: noProperNouns,
			want:      []ResolvedSegment{signed("where-are-you", "where-are-you.mp4"), signed("?", "question.mp4")},
		},
		{
			name:      "entry without senses contributes nothing",
			gloss:     "EMPTY DOG",
			setupMock: noProperNouns,
			want:      []ResolvedSegment{signed("dog", "dog.mp4")},
		},
		{
			name:      "chosen sense without a clip drops the token",
			gloss:     "LOST DOG",
			setupMock: noProperNouns,
			want:      []ResolvedSegment{signed("dog", "dog.mp4")},
		},
		{
			name:     "oracle failures degrade instead of failing",
			gloss:    "BAT DOG",
			sentence: "The bat flew.",
			setupMock: func(client *mock_inference.MockClient) {
				client.EXPECT().FindProperNouns(gomock.Any(), gomock.Any()).Return("", errors.New("timeout"))
				client.EXPECT().ChooseSense(gomock.Any(), gomock.Any()).Return("banana", nil)
			},
			want: []ResolvedSegment{signed("bat", "bat-club.mp4"), signed("dog", "dog.mp4")},
		},
		{
			name:      "nothing resolves",
			gloss:     "ZZZ",
			setupMock: noProperNouns,
			want:      []ResolvedSegment{},
		},
		{
			name:      "empty gloss never asks the oracle",
			gloss:     "  ",
			setupMock: func(client *mock_inference.MockClient) {},
			want:      []ResolvedSegment{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			client := mock_inference.NewMockClient(ctrl)
			tt.setupMock(client)

			pipeline := NewPipeline(repo, clips, client, WithOracleTimeout(time.Second))
			got, err := pipeline.Resolve(context.Background(), tt.gloss, tt.sentence)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPipeline_Resolve_RecordsOutcomes(t *testing.T) {
	clips := newClipStore(t, "dog.mp4", "o.mp4")
	repo := newRepository(t,
		entry([]string{"dog"}, sense("animal", "dog.mp4")),
		entry([]string{"o"}, sense("letter o", "o.mp4")),
		entry([]string{"cat"}, sense("animal", "cat.mp4")),
	)
	ctrl := gomock.NewController(t)
	client := mock_inference.NewMockClient(ctrl)
	client.EXPECT().FindProperNouns(gomock.Any(), gomock.Any()).Return("not a list", nil)
	recorder := newCountingRecorder()

	_, err := NewPipeline(repo, clips, client, WithRecorder(recorder)).Resolve(context.Background(), "DOG CAT ZO", "")
	require.NoError(t, err)
	assert.Equal(t, map[Route]int{RouteSign: 1, RouteFingerspell: 1}, recorder.resolved)
	assert.Equal(t, map[string]int{DropMissingClip: 1, DropUnknownChar: 1}, recorder.dropped)
	assert.Equal(t, map[string]int{CallFindProperNouns: 1}, recorder.degraded)
}

func TestPipeline_Resolve_StoreError(t *testing.T) {
	storeErr := errors.New("connection lost")

	tests := []struct {
		name      string
		gloss     string
		setupRepo func(repo *mock_dictionary.MockRepository)
		setupMock func(client *mock_inference.MockClient)
	}{
		{
			name:  "lookup fails",
			gloss: "DOG",
			setupRepo: func(repo *mock_dictionary.MockRepository) {
				repo.EXPECT().FindBySurfaceForm(gomock.Any(), "dog").Return(nil, storeErr)
			},
			setupMock: func(client *mock_inference.MockClient) {
				client.EXPECT().FindProperNouns(gomock.Any(), gomock.Any()).Return("[]", nil)
			},
		},
		{
			name:  "compound check fails",
			gloss: "GIVE-ME",
			setupRepo: func(repo *mock_dictionary.MockRepository) {
				repo.EXPECT().FindBySurfaceForm(gomock.Any(), "give-me").Return(nil, storeErr)
			},
			setupMock: func(client *mock_inference.MockClient) {},
		},
		{
			name:  "spelling lookup fails",
			gloss: "XY",
			setupRepo: func(repo *mock_dictionary.MockRepository) {
				repo.EXPECT().FindBySurfaceForm(gomock.Any(), "xy").Return(nil, nil)
				repo.EXPECT().FindBySurfaceForm(gomock.Any(), "x").Return(nil, storeErr)
			},
			setupMock: func(client *mock_inference.MockClient) {
				client.EXPECT().FindProperNouns(gomock.Any(), gomock.Any()).Return("[]", nil)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			repo := mock_dictionary.NewMockRepository(ctrl)
			client := mock_inference.NewMockClient(ctrl)
			tt.setupRepo(repo)
			tt.setupMock(client)

			got, err := NewPipeline(repo, newClipStore(t), client).Resolve(context.Background(), tt.gloss, "")
			assert.ErrorIs(t, err, storeErr)
			assert.Nil(t, got)
		})
	}
}

func TestPipeline_Resolve_SingleSenseNeverAsksOracle(t *testing.T) {
	clips := newClipStore(t, "dog.mp4")
	repo := newRepository(t, entry([]string{"dog"}, sense("animal", "dog.mp4")))

	ctrl := gomock.NewController(t)
	client := mock_inference.NewMockClient(ctrl)
	client.EXPECT().FindProperNouns(gomock.Any(), gomock.Any()).Return("[]", nil)
	client.EXPECT().ChooseSense(gomock.Any(), gomock.Any()).Times(0)

	got, err := NewPipeline(repo, clips, client).Resolve(context.Background(), "DOG", "The dog barks at the mailman.")
	require.NoError(t, err)
	assert.Equal(t, []ResolvedSegment{{Token: "dog", ClipPath: filepath.Join(clips.Dir(), "dog.mp4"), Route: RouteSign}}, got)
}
